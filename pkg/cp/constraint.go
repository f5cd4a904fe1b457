package cp

import (
	"fmt"
	"strings"
)

// Constraint groups the propagators that jointly encode one relation. The
// propagators are scheduled independently.
type Constraint struct {
	name  string
	props []Propagator
}

// NewConstraint creates a constraint from its propagators.
func NewConstraint(name string, props ...Propagator) *Constraint {
	ps := make([]Propagator, len(props))
	copy(ps, props)
	return &Constraint{name: name, props: ps}
}

// Name returns the constraint name.
func (c *Constraint) Name() string { return c.name }

// Propagators returns the constraint's propagators.
func (c *Constraint) Propagators() []Propagator { return c.props }

// IsEntailed combines the entailment of every propagator.
func (c *Constraint) IsEntailed() Entailment {
	res := EntailTrue
	for _, p := range c.props {
		res = res.And(p.IsEntailed())
		if res == EntailFalse {
			return res
		}
	}
	return res
}

func (c *Constraint) String() string {
	parts := make([]string, len(c.props))
	for i, p := range c.props {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", c.name, strings.Join(parts, "; "))
}

// Member returns the constraint lb ≤ v ≤ ub.
func Member(v *IntVar, lb, ub int) (*Constraint, error) {
	p, err := NewMemberBound(v, lb, ub)
	if err != nil {
		return nil, err
	}
	return NewConstraint("member", p), nil
}

// GreaterOrEqual returns the constraint x + y ≥ c.
func GreaterOrEqual(x, y *IntVar, c int) (*Constraint, error) {
	p, err := NewGreaterOrEqualXYC(x, y, c)
	if err != nil {
		return nil, err
	}
	return NewConstraint("geq", p), nil
}

// Subset returns the constraint x ⊆ y.
func Subset(x, y *SetVar) (*Constraint, error) {
	p, err := NewSubsetEq(x, y)
	if err != nil {
		return nil, err
	}
	return NewConstraint("subset", p), nil
}

// PosInTour ties pos[i] to the position of node i along the path described
// by g. With condense set, the traversal works on the strongly connected
// components of the current envelope.
func PosInTour(g *GraphVar, pos []*IntVar, condense bool) (*Constraint, error) {
	if g == nil {
		return nil, fmt.Errorf("pos-in-tour: nil graph variable")
	}
	var rg *Condensation
	if condense {
		rg = Condense(g.Model().Trail(), g.Envelope())
	}
	p, err := NewPosInTourGraphReactor(g, pos, rg)
	if err != nil {
		return nil, err
	}
	return NewConstraint("pos_in_tour", p), nil
}
