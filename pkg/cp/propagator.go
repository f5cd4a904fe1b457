package cp

import (
	"errors"
	"fmt"

	"github.com/gitrdm/gokanprop/pkg/trail"
)

// Priority orders propagators by cost; cheaper propagators run first under
// priority-aware strategies.
type Priority int

const (
	PriorityUnary Priority = iota + 1
	PriorityBinary
	PriorityTernary
	PriorityLinear
	PriorityQuadratic
	PriorityCubic
	PriorityVerySlow
)

func (p Priority) String() string {
	switch p {
	case PriorityUnary:
		return "unary"
	case PriorityBinary:
		return "binary"
	case PriorityTernary:
		return "ternary"
	case PriorityLinear:
		return "linear"
	case PriorityQuadratic:
		return "quadratic"
	case PriorityCubic:
		return "cubic"
	case PriorityVerySlow:
		return "very-slow"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Entailment is the three-valued answer of an entailment check.
type Entailment int

const (
	// EntailUndefined means further narrowing may still decide the relation.
	EntailUndefined Entailment = iota
	// EntailTrue means the relation holds for every remaining assignment.
	EntailTrue
	// EntailFalse means no remaining assignment satisfies the relation.
	EntailFalse
)

func (e Entailment) String() string {
	switch e {
	case EntailTrue:
		return "true"
	case EntailFalse:
		return "false"
	default:
		return "undefined"
	}
}

// And combines two entailments: false dominates, then undefined.
func (e Entailment) And(o Entailment) Entailment {
	if e == EntailFalse || o == EntailFalse {
		return EntailFalse
	}
	if e == EntailUndefined || o == EntailUndefined {
		return EntailUndefined
	}
	return EntailTrue
}

// PropagatorState is the lifecycle state of a propagator.
type PropagatorState int

const (
	// StateNew propagators have not run their initial full propagation.
	StateNew PropagatorState = iota
	// StateActive propagators are scheduled on relevant events.
	StateActive
	// StatePassive propagators are entailed and never scheduled again
	// until a backtrack restores an earlier state.
	StatePassive
)

func (s PropagatorState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateActive:
		return "active"
	case StatePassive:
		return "passive"
	default:
		return fmt.Sprintf("PropagatorState(%d)", int(s))
	}
}

// Propagator is a filtering algorithm over a fixed sequence of variables.
//
// Propagate performs full propagation from the current domains; mask holds
// EventFullPropagation after posting, EventCustomPropagation when the engine
// or the propagator itself requests a coarse run. PropagateOn reacts to the
// events of vars[idx], mask being the intersection of what happened with
// PropagationConditions(idx). Both return a *Contradiction when a narrowing
// fails and must leave the propagator idempotent: a second call with no new
// event changes nothing.
//
// IsEntailed inspects the domains without modifying them. It never answers
// EntailTrue when Propagate would fail.
type Propagator interface {
	Cause
	Base() *PropagatorBase
	Propagate(mask EventType) error
	PropagateOn(idx int, mask EventType) error
	PropagationConditions(idx int) EventType
	IsEntailed() Entailment
	// Duplicate builds the equivalent propagator over the duplicated
	// variables of d's destination model.
	Duplicate(d *Duplicator) (Propagator, error)
}

// PropagatorBase carries the bookkeeping shared by every propagator.
// Implementations embed it and initialise it with NewPropagatorBase.
type PropagatorBase struct {
	self       Propagator
	id         int
	name       string
	vars       []Variable
	priority   Priority
	fine       bool
	state      *trail.Int
	model      *Model
	constraint *Constraint
}

// ErrNoVariables is returned for a propagator without variables.
var ErrNoVariables = errors.New("propagator requires at least one variable")

// NewPropagatorBase validates vars and returns the base to embed. All
// variables must belong to the same model. reactOnFineEvents selects whether
// the engine calls PropagateOn for individual events or only schedules a
// coarse Propagate.
func NewPropagatorBase(name string, vars []Variable, priority Priority, reactOnFineEvents bool) (PropagatorBase, error) {
	if len(vars) == 0 {
		return PropagatorBase{}, fmt.Errorf("%s: %w", name, ErrNoVariables)
	}
	m := vars[0].base().model
	for i, v := range vars {
		if v == nil {
			return PropagatorBase{}, fmt.Errorf("%s: variable %d is nil", name, i)
		}
		if v.base().model != m {
			return PropagatorBase{}, fmt.Errorf("%s: variable %s belongs to another model", name, v.Name())
		}
	}
	vs := make([]Variable, len(vars))
	copy(vs, vars)
	return PropagatorBase{
		id:       -1,
		name:     name,
		vars:     vs,
		priority: priority,
		fine:     reactOnFineEvents,
		state:    trail.NewInt(m.trail, int(StateNew)),
		model:    m,
	}, nil
}

// Base returns the embedded base.
func (b *PropagatorBase) Base() *PropagatorBase { return b }

// ID returns the propagator's index in its model, or -1 before posting.
func (b *PropagatorBase) ID() int { return b.id }

// Name returns the propagator's name.
func (b *PropagatorBase) Name() string { return b.name }

func (b *PropagatorBase) String() string { return b.name }

// Vars returns the propagator's variables.
func (b *PropagatorBase) Vars() []Variable { return b.vars }

// NbVars returns the number of variables.
func (b *PropagatorBase) NbVars() int { return len(b.vars) }

// Priority returns the scheduling priority.
func (b *PropagatorBase) Priority() Priority { return b.priority }

// ReactsOnFineEvents reports whether PropagateOn is used.
func (b *PropagatorBase) ReactsOnFineEvents() bool { return b.fine }

// Constraint returns the owning constraint, nil before posting.
func (b *PropagatorBase) Constraint() *Constraint { return b.constraint }

// State returns the lifecycle state.
func (b *PropagatorBase) State() PropagatorState { return PropagatorState(b.state.Get()) }

// IsActive reports whether the propagator is scheduled on events.
func (b *PropagatorBase) IsActive() bool { return b.State() == StateActive }

// IsPassive reports whether the propagator has been found entailed.
func (b *PropagatorBase) IsPassive() bool { return b.State() == StatePassive }

// SetPassive excludes the propagator from scheduling for the rest of the
// current branch.
func (b *PropagatorBase) SetPassive() {
	if b.State() == StatePassive {
		return
	}
	b.state.Set(int(StatePassive))
	b.model.propagatorPassive(b.self)
}

func (b *PropagatorBase) setActive() { b.state.Set(int(StateActive)) }

// ForcePropagate schedules a coarse propagation of this propagator.
func (b *PropagatorBase) ForcePropagate(mask EventType) {
	b.model.forcePropagate(b.self, mask)
}

// copyState transfers the lifecycle state to a duplicate.
func (b *PropagatorBase) copyState(dst *PropagatorBase) {
	dst.state.Set(b.state.Get())
}
