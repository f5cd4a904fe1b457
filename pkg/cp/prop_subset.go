package cp

import "fmt"

// SubsetEq enforces X ⊆ Y on two set variables: kernel(X) is pushed into
// kernel(Y) and envelope(X) is trimmed to envelope(Y).
type SubsetEq struct {
	PropagatorBase
	x, y *SetVar
	dm   [2]*DeltaMonitor
}

// NewSubsetEq creates the propagator for x ⊆ y.
func NewSubsetEq(x, y *SetVar) (*SubsetEq, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("subset: nil set variable")
	}
	base, err := NewPropagatorBase(fmt.Sprintf("%s ⊆ %s", x.Name(), y.Name()), []Variable{x, y}, PriorityLinear, true)
	if err != nil {
		return nil, err
	}
	p := &SubsetEq{PropagatorBase: base, x: x, y: y}
	p.dm[0] = x.Monitor(p)
	p.dm[1] = y.Monitor(p)
	return p, nil
}

// PropagationConditions: additions to kernel(X), removals from envelope(Y).
func (p *SubsetEq) PropagationConditions(idx int) EventType {
	if idx == 0 {
		return EventAddToKernel
	}
	return EventRemoveFromEnvelope
}

func (p *SubsetEq) Propagate(EventType) error {
	for _, v := range p.x.Kernel() {
		if _, err := p.y.AddToKernel(v, p); err != nil {
			return err
		}
	}
	for _, v := range p.x.Envelope() {
		if !p.y.EnvelopeContains(v) {
			if _, err := p.x.RemoveFromEnvelope(v, p); err != nil {
				return err
			}
		}
	}
	p.dm[0].Discard()
	p.dm[1].Discard()
	if p.IsEntailed() == EntailTrue {
		p.SetPassive()
	}
	return nil
}

func (p *SubsetEq) PropagateOn(idx int, _ EventType) error {
	m := p.dm[idx]
	m.Freeze()
	defer m.Unfreeze()
	if idx == 0 {
		return m.ForEachValue(EventAddToKernel, func(v int) error {
			_, err := p.y.AddToKernel(v, p)
			return err
		})
	}
	return m.ForEachValue(EventRemoveFromEnvelope, func(v int) error {
		_, err := p.x.RemoveFromEnvelope(v, p)
		return err
	})
}

func (p *SubsetEq) IsEntailed() Entailment {
	for _, v := range p.x.Kernel() {
		if !p.y.EnvelopeContains(v) {
			return EntailFalse
		}
	}
	for _, v := range p.x.Envelope() {
		if !p.y.KernelContains(v) {
			return EntailUndefined
		}
	}
	return EntailTrue
}

func (p *SubsetEq) Duplicate(d *Duplicator) (Propagator, error) {
	x, err := d.SetVar(p.x)
	if err != nil {
		return nil, err
	}
	y, err := d.SetVar(p.y)
	if err != nil {
		return nil, err
	}
	return NewSubsetEq(x, y)
}
