package cp

import "fmt"

// GreaterOrEqualXYC enforces X + Y ≥ C on bounds.
type GreaterOrEqualXYC struct {
	PropagatorBase
	x, y *IntVar
	c    int
}

// NewGreaterOrEqualXYC creates the propagator for x + y ≥ c.
func NewGreaterOrEqualXYC(x, y *IntVar, c int) (*GreaterOrEqualXYC, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("x+y>=c: nil variable")
	}
	base, err := NewPropagatorBase(fmt.Sprintf("%s + %s >= %d", x.Name(), y.Name(), c), []Variable{x, y}, PriorityBinary, true)
	if err != nil {
		return nil, err
	}
	return &GreaterOrEqualXYC{PropagatorBase: base, x: x, y: y, c: c}, nil
}

func (p *GreaterOrEqualXYC) PropagationConditions(int) EventType {
	return EventInstantiate | EventBound
}

func (p *GreaterOrEqualXYC) Propagate(EventType) error {
	if _, err := p.x.UpdateLowerBound(p.c-p.y.UB(), p); err != nil {
		return err
	}
	if _, err := p.y.UpdateLowerBound(p.c-p.x.UB(), p); err != nil {
		return err
	}
	p.checkPassive()
	return nil
}

// PropagateOn only filters when an upper bound moved; a raised lower bound
// can only make the constraint entailed.
func (p *GreaterOrEqualXYC) PropagateOn(idx int, mask EventType) error {
	if mask.Any(EventInstantiate | EventDecUpp) {
		var err error
		if idx == 0 {
			_, err = p.y.UpdateLowerBound(p.c-p.x.UB(), p)
		} else {
			_, err = p.x.UpdateLowerBound(p.c-p.y.UB(), p)
		}
		if err != nil {
			return err
		}
	}
	p.checkPassive()
	return nil
}

func (p *GreaterOrEqualXYC) checkPassive() {
	if p.x.LB()+p.y.LB() >= p.c {
		p.SetPassive()
	}
}

func (p *GreaterOrEqualXYC) IsEntailed() Entailment {
	switch {
	case p.x.UB()+p.y.UB() < p.c:
		return EntailFalse
	case p.x.LB()+p.y.LB() >= p.c:
		return EntailTrue
	default:
		return EntailUndefined
	}
}

func (p *GreaterOrEqualXYC) Duplicate(d *Duplicator) (Propagator, error) {
	x, err := d.IntVar(p.x)
	if err != nil {
		return nil, err
	}
	y, err := d.IntVar(p.y)
	if err != nil {
		return nil, err
	}
	return NewGreaterOrEqualXYC(x, y, p.c)
}
