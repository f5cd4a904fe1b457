package cp

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gitrdm/gokanprop/pkg/trail"
)

// Model is the arena owning variables, constraints, propagators and the
// trail their state lives on. Variables and propagators are identified by
// their index in the model, which is what duplication remaps.
//
// A model is used by one goroutine at a time. Parallel work duplicates it.
type Model struct {
	name        string
	trail       *trail.Trail
	vars        []Variable
	constraints []*Constraint
	props       []Propagator
	obs         observer
}

// observer receives the notifications the scheduler needs.
type observer interface {
	onVariableUpdate(v Variable, mask EventType, cause Cause)
	forcePropagate(p Propagator, mask EventType)
	onPassive(p Propagator)
	onPost(p Propagator)
}

// ErrAlreadyPosted is returned when a constraint or propagator is posted twice.
var ErrAlreadyPosted = errors.New("already posted")

// NewModel creates an empty model with its own trail.
func NewModel(name string) *Model {
	return &Model{
		name:        name,
		trail:       trail.New(),
		vars:        make([]Variable, 0, 16),
		constraints: make([]*Constraint, 0, 16),
		props:       make([]Propagator, 0, 16),
	}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Trail returns the trail holding the model's reversible state.
func (m *Model) Trail() *trail.Trail { return m.trail }

// Push opens a search world.
func (m *Model) Push() { m.trail.Push() }

// Pop restores the state saved by the matching Push.
func (m *Model) Pop() error { return m.trail.Pop() }

func (m *Model) addVar(b *varBase, v Variable, name string) {
	b.id = len(m.vars)
	b.name = name
	if b.name == "" {
		b.name = fmt.Sprintf("v%d", b.id)
	}
	b.model = m
	b.delta = newDelta(m.trail)
	m.vars = append(m.vars, v)
}

// NewIntVar creates an integer variable with domain [lb, ub].
func (m *Model) NewIntVar(name string, lb, ub int) (*IntVar, error) {
	if lb > ub {
		return nil, fmt.Errorf("NewIntVar %s: empty domain [%d,%d]", name, lb, ub)
	}
	v := &IntVar{lb: trail.NewInt(m.trail, lb), ub: trail.NewInt(m.trail, ub)}
	m.addVar(&v.varBase, v, name)
	return v, nil
}

// NewSetVar creates a set variable. kernel must be a subset of envelope.
func (m *Model) NewSetVar(name string, kernel, envelope []int) (*SetVar, error) {
	env := newIntSet(envelope...)
	for _, k := range kernel {
		if !env.has(k) {
			return nil, fmt.Errorf("NewSetVar %s: kernel element %d not in envelope", name, k)
		}
	}
	v := &SetVar{kernel: newIntSet(kernel...), envelope: env}
	m.addVar(&v.varBase, v, name)
	return v, nil
}

// NewGraphVar creates a directed graph variable over nodes 0..n-1. Every
// kernel arc must also be an envelope arc.
func (m *Model) NewGraphVar(name string, n int, kernel, envelope []Arc) (*GraphVar, error) {
	if n <= 0 {
		return nil, fmt.Errorf("NewGraphVar %s: need at least one node, got %d", name, n)
	}
	env := newDigraph(n)
	for _, a := range envelope {
		if a.From < 0 || a.From >= n || a.To < 0 || a.To >= n {
			return nil, fmt.Errorf("NewGraphVar %s: arc %v outside node set", name, a)
		}
		env.addArc(a.From, a.To)
	}
	ker := newDigraph(n)
	for _, a := range kernel {
		if a.From < 0 || a.From >= n || a.To < 0 || a.To >= n || !env.HasArc(a.From, a.To) {
			return nil, fmt.Errorf("NewGraphVar %s: kernel arc %v not in envelope", name, a)
		}
		ker.addArc(a.From, a.To)
	}
	v := &GraphVar{kernel: ker, envelope: env}
	m.addVar(&v.varBase, v, name)
	return v, nil
}

// Vars returns the model's variables in creation order.
func (m *Model) Vars() []Variable { return m.vars }

// Var returns the variable with the given index, or nil.
func (m *Model) Var(id int) Variable {
	if id < 0 || id >= len(m.vars) {
		return nil
	}
	return m.vars[id]
}

// VarByName returns the first variable with the given name, or nil.
func (m *Model) VarByName(name string) Variable {
	i := slices.IndexFunc(m.vars, func(v Variable) bool { return v.Name() == name })
	if i < 0 {
		return nil
	}
	return m.vars[i]
}

// Constraints returns the posted constraints.
func (m *Model) Constraints() []*Constraint { return m.constraints }

// Propagators returns every posted propagator, indexed by ID.
func (m *Model) Propagators() []Propagator { return m.props }

// Post adds a constraint. Its propagators subscribe to their variables and
// are scheduled for full propagation on the next Solver.Propagate.
func (m *Model) Post(c *Constraint) error {
	if slices.Contains(m.constraints, c) {
		return fmt.Errorf("post %s: %w", c.name, ErrAlreadyPosted)
	}
	for _, p := range c.props {
		b := p.Base()
		if b.model != m {
			return fmt.Errorf("post %s: propagator %s belongs to another model", c.name, p)
		}
		if b.id >= 0 {
			return fmt.Errorf("post %s: propagator %s: %w", c.name, p, ErrAlreadyPosted)
		}
	}
	for _, p := range c.props {
		b := p.Base()
		b.self = p
		b.id = len(m.props)
		b.constraint = c
		for i, v := range b.vars {
			v.base().link(p, i)
		}
		m.props = append(m.props, p)
		if m.obs != nil {
			m.obs.onPost(p)
		}
	}
	m.constraints = append(m.constraints, c)
	return nil
}

// IsSatisfied combines the entailment of every constraint: EntailTrue means
// the current domains form a solution of the whole model.
func (m *Model) IsSatisfied() Entailment {
	res := EntailTrue
	for _, c := range m.constraints {
		res = res.And(c.IsEntailed())
		if res == EntailFalse {
			return res
		}
	}
	return res
}

func (m *Model) notify(v Variable, mask EventType, cause Cause) {
	if m.obs != nil {
		m.obs.onVariableUpdate(v, mask, cause)
	}
}

func (m *Model) forcePropagate(p Propagator, mask EventType) {
	if m.obs != nil {
		m.obs.forcePropagate(p, mask)
	}
}

func (m *Model) propagatorPassive(p Propagator) {
	if m.obs != nil {
		m.obs.onPassive(p)
	}
}
