package cp

import (
	"fmt"

	"github.com/gitrdm/gokanprop/pkg/trail"
)

// IntVar is a bounded integer variable with domain [lb, ub]. Only the bounds
// are represented, so removing an interior value is a no-op.
type IntVar struct {
	varBase
	lb, ub *trail.Int
}

// Kind implements Variable.
func (v *IntVar) Kind() VarKind { return KindInt }

// LB returns the lower bound.
func (v *IntVar) LB() int { return v.lb.Get() }

// UB returns the upper bound.
func (v *IntVar) UB() int { return v.ub.Get() }

// IsInstantiated reports whether lb == ub.
func (v *IntVar) IsInstantiated() bool { return v.lb.Get() == v.ub.Get() }

// Value returns the value of an instantiated variable; otherwise the lower
// bound.
func (v *IntVar) Value() int { return v.lb.Get() }

// Contains reports whether x lies within the bounds.
func (v *IntVar) Contains(x int) bool { return v.lb.Get() <= x && x <= v.ub.Get() }

// DomainSize returns ub - lb + 1.
func (v *IntVar) DomainSize() int { return v.ub.Get() - v.lb.Get() + 1 }

func (v *IntVar) String() string {
	if v.IsInstantiated() {
		return fmt.Sprintf("%s = %d", v.name, v.lb.Get())
	}
	return fmt.Sprintf("%s ∈ [%d,%d]", v.name, v.lb.Get(), v.ub.Get())
}

// UpdateLowerBound raises lb to x.
func (v *IntVar) UpdateLowerBound(x int, cause Cause) (bool, error) {
	old := v.lb.Get()
	if x <= old {
		return false, nil
	}
	ub := v.ub.Get()
	if x > ub {
		return false, contradiction(v, "UpdateLowerBound", cause, "%d > ub %d", x, ub)
	}
	v.lb.Set(x)
	kind := EventIncLow
	if x == ub {
		kind |= EventInstantiate
	}
	v.changed(v, kind, old, x, cause)
	return true, nil
}

// UpdateUpperBound lowers ub to x.
func (v *IntVar) UpdateUpperBound(x int, cause Cause) (bool, error) {
	old := v.ub.Get()
	if x >= old {
		return false, nil
	}
	lb := v.lb.Get()
	if x < lb {
		return false, contradiction(v, "UpdateUpperBound", cause, "%d < lb %d", x, lb)
	}
	v.ub.Set(x)
	kind := EventDecUpp
	if x == lb {
		kind |= EventInstantiate
	}
	v.changed(v, kind, old, x, cause)
	return true, nil
}

// UpdateBounds intersects the domain with [lo, hi].
func (v *IntVar) UpdateBounds(lo, hi int, cause Cause) (bool, error) {
	if lo > v.ub.Get() || hi < v.lb.Get() || lo > hi {
		return false, contradiction(v, "UpdateBounds", cause, "[%d,%d] disjoint from [%d,%d]",
			lo, hi, v.lb.Get(), v.ub.Get())
	}
	a, err := v.UpdateLowerBound(lo, cause)
	if err != nil {
		return a, err
	}
	b, err := v.UpdateUpperBound(hi, cause)
	return a || b, err
}

// InstantiateTo fixes the variable to x as one atomic change.
func (v *IntVar) InstantiateTo(x int, cause Cause) (bool, error) {
	lb, ub := v.lb.Get(), v.ub.Get()
	if x < lb || x > ub {
		return false, contradiction(v, "InstantiateTo", cause, "%d outside [%d,%d]", x, lb, ub)
	}
	if lb == ub {
		return false, nil
	}
	kind := EventInstantiate
	if x > lb {
		kind |= EventIncLow
	}
	if x < ub {
		kind |= EventDecUpp
	}
	v.lb.Set(x)
	v.ub.Set(x)
	v.changed(v, kind, x, x, cause)
	return true, nil
}

// RemoveValue removes x. Only a value at a bound can be removed; interior
// values are kept since the domain has no holes.
func (v *IntVar) RemoveValue(x int, cause Cause) (bool, error) {
	lb, ub := v.lb.Get(), v.ub.Get()
	switch {
	case x < lb || x > ub:
		return false, nil
	case lb == ub:
		return false, contradiction(v, "RemoveValue", cause, "%d is the only value", x)
	case x == lb:
		return v.UpdateLowerBound(x+1, cause)
	case x == ub:
		return v.UpdateUpperBound(x-1, cause)
	default:
		return false, nil
	}
}

func (v *IntVar) duplicate(dst *Model) Variable {
	nv, _ := dst.NewIntVar(v.name, v.lb.Get(), v.ub.Get())
	return nv
}
