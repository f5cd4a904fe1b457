package cp

import (
	"fmt"

	"github.com/gitrdm/gokanprop/pkg/trail"
)

// Duplicator maps entities of a source model onto their copies in a
// destination model. Variables are remapped by index; other shared objects
// (reversible cells, condensations) go through an identity map so that an
// object shared by several propagators stays shared in the copy.
type Duplicator struct {
	src, dst *Model
	seen     map[any]any
}

// Source returns the model being copied.
func (d *Duplicator) Source() *Model { return d.src }

// Target returns the model being built.
func (d *Duplicator) Target() *Model { return d.dst }

// Trail returns the destination trail.
func (d *Duplicator) Trail() *trail.Trail { return d.dst.trail }

// Var returns the copy of v.
func (d *Duplicator) Var(v Variable) (Variable, error) {
	if v.base().model != d.src {
		return nil, fmt.Errorf("duplicate: variable %s does not belong to model %s", v.Name(), d.src.name)
	}
	return d.dst.vars[v.ID()], nil
}

// IntVar returns the copy of v.
func (d *Duplicator) IntVar(v *IntVar) (*IntVar, error) {
	nv, err := d.Var(v)
	if err != nil {
		return nil, err
	}
	return nv.(*IntVar), nil
}

// SetVar returns the copy of v.
func (d *Duplicator) SetVar(v *SetVar) (*SetVar, error) {
	nv, err := d.Var(v)
	if err != nil {
		return nil, err
	}
	return nv.(*SetVar), nil
}

// GraphVar returns the copy of v.
func (d *Duplicator) GraphVar(v *GraphVar) (*GraphVar, error) {
	nv, err := d.Var(v)
	if err != nil {
		return nil, err
	}
	return nv.(*GraphVar), nil
}

// IntVars maps a slice of integer variables.
func (d *Duplicator) IntVars(vs []*IntVar) ([]*IntVar, error) {
	out := make([]*IntVar, len(vs))
	for i, v := range vs {
		nv, err := d.IntVar(v)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return out, nil
}

// Int returns the copy of a reversible integer, creating it on first use.
func (d *Duplicator) Int(c *trail.Int) *trail.Int {
	if c == nil {
		return nil
	}
	if nc, ok := d.seen[c]; ok {
		return nc.(*trail.Int)
	}
	nc := c.CopyTo(d.dst.trail)
	d.seen[c] = nc
	return nc
}

// Lookup returns the copy registered for old.
func (d *Duplicator) Lookup(old any) (any, bool) {
	v, ok := d.seen[old]
	return v, ok
}

// Store registers the copy of old.
func (d *Duplicator) Store(old, copy any) { d.seen[old] = copy }

// Duplicate builds a structurally independent copy of the model in its
// current state: same variables (by index) with their current domains, same
// constraints with duplicated propagators in the same lifecycle state, and a
// fresh trail positioned at the root world. The copy shares nothing mutable
// with the original and can be handed to another goroutine.
func (m *Model) Duplicate() (*Model, error) {
	dst := NewModel(m.name)
	for _, v := range m.vars {
		v.duplicate(dst)
	}
	d := &Duplicator{src: m, dst: dst, seen: make(map[any]any)}
	for _, c := range m.constraints {
		props := make([]Propagator, len(c.props))
		for i, p := range c.props {
			np, err := p.Duplicate(d)
			if err != nil {
				return nil, fmt.Errorf("duplicate %s: %w", c.name, err)
			}
			props[i] = np
		}
		nc := NewConstraint(c.name, props...)
		if err := dst.Post(nc); err != nil {
			return nil, err
		}
		for i, p := range c.props {
			p.Base().copyState(props[i].Base())
		}
	}
	return dst, nil
}
