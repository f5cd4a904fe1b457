// Package modelfile reads propagation models from YAML.
//
//	name: tour
//	solver: {strategy: two-queues-with-arcs, max_iterations: 0}
//	variables:
//	  - {name: x, type: int, lb: 0, ub: 3}
//	  - {name: s, type: set, kernel: [1], envelope: [1, 2]}
//	  - {name: g, type: graph, nodes: 4, kernel: [[0,1]], envelope: [[0,1],[1,2],[2,3]]}
//	constraints:
//	  - {type: member, vars: [x], lb: 0, ub: 7}
//	  - {type: geq, vars: [x, y], c: 5}
//	  - {type: subset, vars: [s, t]}
//	  - {type: pos_in_tour, graph: g, vars: [p0, p1, p2, p3], condense: false}
package modelfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gokanprop/pkg/cp"
)

// File is a parsed model description.
type File struct {
	Name        string       `yaml:"name,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Solver      *Solver      `yaml:"solver,omitempty"`
	Variables   []Variable   `yaml:"variables"`
	Constraints []Constraint `yaml:"constraints"`
}

// Solver holds the optional solver settings.
type Solver struct {
	Strategy      string `yaml:"strategy,omitempty"`
	MaxIterations int    `yaml:"max_iterations,omitempty"`
}

// Variable declares one variable. Kernel and envelope are element lists
// for sets and [from, to] pairs for graphs.
type Variable struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	LB       int       `yaml:"lb,omitempty"`
	UB       int       `yaml:"ub,omitempty"`
	Nodes    int       `yaml:"nodes,omitempty"`
	Kernel   yaml.Node `yaml:"kernel,omitempty"`
	Envelope yaml.Node `yaml:"envelope,omitempty"`
}

// Constraint declares one constraint.
type Constraint struct {
	Type     string   `yaml:"type"`
	Vars     []string `yaml:"vars"`
	Graph    string   `yaml:"graph,omitempty"`
	LB       int      `yaml:"lb,omitempty"`
	UB       int      `yaml:"ub,omitempty"`
	C        int      `yaml:"c,omitempty"`
	Condense bool     `yaml:"condense,omitempty"`
}

// Variable and constraint types.
const (
	TypeInt   = "int"
	TypeSet   = "set"
	TypeGraph = "graph"

	TypeMember    = "member"
	TypeGeq       = "geq"
	TypeSubset    = "subset"
	TypePosInTour = "pos_in_tour"
)

// Load reads and parses a model file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a model description, rejecting unknown fields.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty model file")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if len(f.Variables) == 0 {
		return fmt.Errorf("variables list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(f.Variables))
	for i, v := range f.Variables {
		if v.Name == "" {
			return fmt.Errorf("variable %d: name is required", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("variable %s declared twice", v.Name)
		}
		seen[v.Name] = true
		switch v.Type {
		case TypeInt, TypeSet, TypeGraph:
		default:
			return fmt.Errorf("variable %s: unknown type %q", v.Name, v.Type)
		}
	}
	for i, c := range f.Constraints {
		switch c.Type {
		case TypeMember, TypeGeq, TypeSubset, TypePosInTour:
		default:
			return fmt.Errorf("constraint %d: unknown type %q", i, c.Type)
		}
	}
	return nil
}

// Config returns the solver configuration of the file, starting from the
// defaults.
func (f *File) Config() *cp.SolverConfig {
	c := cp.DefaultSolverConfig()
	if f.Solver != nil {
		if f.Solver.Strategy != "" {
			c.Strategy = f.Solver.Strategy
		}
		c.MaxIterations = f.Solver.MaxIterations
	}
	return c
}

// Build creates the model and posts its constraints.
func (f *File) Build() (*cp.Model, error) {
	name := f.Name
	if name == "" {
		name = "model"
	}
	m := cp.NewModel(name)
	for _, v := range f.Variables {
		if err := addVariable(m, v); err != nil {
			return nil, err
		}
	}
	for i, c := range f.Constraints {
		con, err := buildConstraint(m, c)
		if err != nil {
			return nil, fmt.Errorf("constraint %d (%s): %w", i, c.Type, err)
		}
		if err := m.Post(con); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func addVariable(m *cp.Model, v Variable) error {
	var err error
	switch v.Type {
	case TypeInt:
		_, err = m.NewIntVar(v.Name, v.LB, v.UB)
	case TypeSet:
		var ker, env []int
		if ker, err = ints(&v.Kernel); err != nil {
			return fmt.Errorf("variable %s kernel: %w", v.Name, err)
		}
		if env, err = ints(&v.Envelope); err != nil {
			return fmt.Errorf("variable %s envelope: %w", v.Name, err)
		}
		_, err = m.NewSetVar(v.Name, ker, env)
	case TypeGraph:
		var ker, env []cp.Arc
		if ker, err = arcs(&v.Kernel); err != nil {
			return fmt.Errorf("variable %s kernel: %w", v.Name, err)
		}
		if env, err = arcs(&v.Envelope); err != nil {
			return fmt.Errorf("variable %s envelope: %w", v.Name, err)
		}
		_, err = m.NewGraphVar(v.Name, v.Nodes, ker, env)
	}
	return err
}

func ints(n *yaml.Node) ([]int, error) {
	if n.IsZero() {
		return nil, nil
	}
	var out []int
	if err := n.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func arcs(n *yaml.Node) ([]cp.Arc, error) {
	if n.IsZero() {
		return nil, nil
	}
	var pairs [][]int
	if err := n.Decode(&pairs); err != nil {
		return nil, err
	}
	out := make([]cp.Arc, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("line %d: arc %v is not a [from, to] pair", n.Line, p)
		}
		out[i] = cp.Arc{From: p[0], To: p[1]}
	}
	return out, nil
}

func lookup[T cp.Variable](m *cp.Model, name string) (T, error) {
	var zero T
	v := m.VarByName(name)
	if v == nil {
		return zero, fmt.Errorf("unknown variable %q", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("variable %s is a %s variable", name, v.Kind())
	}
	return t, nil
}

func intVars(m *cp.Model, names []string) ([]*cp.IntVar, error) {
	out := make([]*cp.IntVar, len(names))
	for i, n := range names {
		v, err := lookup[*cp.IntVar](m, n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func arity(c Constraint, n int) error {
	if len(c.Vars) != n {
		return fmt.Errorf("expects %d variables, got %d", n, len(c.Vars))
	}
	return nil
}

func buildConstraint(m *cp.Model, c Constraint) (*cp.Constraint, error) {
	switch c.Type {
	case TypeMember:
		if err := arity(c, 1); err != nil {
			return nil, err
		}
		v, err := lookup[*cp.IntVar](m, c.Vars[0])
		if err != nil {
			return nil, err
		}
		return cp.Member(v, c.LB, c.UB)
	case TypeGeq:
		if err := arity(c, 2); err != nil {
			return nil, err
		}
		vs, err := intVars(m, c.Vars)
		if err != nil {
			return nil, err
		}
		return cp.GreaterOrEqual(vs[0], vs[1], c.C)
	case TypeSubset:
		if err := arity(c, 2); err != nil {
			return nil, err
		}
		x, err := lookup[*cp.SetVar](m, c.Vars[0])
		if err != nil {
			return nil, err
		}
		y, err := lookup[*cp.SetVar](m, c.Vars[1])
		if err != nil {
			return nil, err
		}
		return cp.Subset(x, y)
	case TypePosInTour:
		g, err := lookup[*cp.GraphVar](m, c.Graph)
		if err != nil {
			return nil, err
		}
		pos, err := intVars(m, c.Vars)
		if err != nil {
			return nil, err
		}
		return cp.PosInTour(g, pos, c.Condense)
	}
	return nil, fmt.Errorf("unknown constraint type %q", c.Type)
}
