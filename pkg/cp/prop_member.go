package cp

import "fmt"

// MemberBound restricts an integer variable to [LB, UB]. It only needs a
// single coarse run unless the variable is widened by a backtrack.
type MemberBound struct {
	PropagatorBase
	v      *IntVar
	lb, ub int
}

// NewMemberBound creates the propagator for lb ≤ v ≤ ub.
func NewMemberBound(v *IntVar, lb, ub int) (*MemberBound, error) {
	if v == nil {
		return nil, fmt.Errorf("member: nil variable")
	}
	base, err := NewPropagatorBase(fmt.Sprintf("%s in [%d,%d]", v.Name(), lb, ub), []Variable{v}, PriorityUnary, false)
	if err != nil {
		return nil, err
	}
	return &MemberBound{PropagatorBase: base, v: v, lb: lb, ub: ub}, nil
}

func (p *MemberBound) PropagationConditions(int) EventType {
	return EventBound | EventInstantiate
}

func (p *MemberBound) Propagate(EventType) error {
	if _, err := p.v.UpdateLowerBound(p.lb, p); err != nil {
		return err
	}
	if _, err := p.v.UpdateUpperBound(p.ub, p); err != nil {
		return err
	}
	if p.lb <= p.v.LB() && p.v.UB() <= p.ub {
		p.SetPassive()
	}
	return nil
}

// PropagateOn is not called: MemberBound does not react on fine events.
func (p *MemberBound) PropagateOn(int, EventType) error {
	return p.Propagate(EventCustomPropagation)
}

func (p *MemberBound) IsEntailed() Entailment {
	switch {
	case p.v.LB() >= p.lb && p.v.UB() <= p.ub:
		return EntailTrue
	case p.v.UB() < p.lb || p.v.LB() > p.ub:
		return EntailFalse
	default:
		return EntailUndefined
	}
}

func (p *MemberBound) Duplicate(d *Duplicator) (Propagator, error) {
	v, err := d.IntVar(p.v)
	if err != nil {
		return nil, err
	}
	return NewMemberBound(v, p.lb, p.ub)
}
