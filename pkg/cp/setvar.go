package cp

import (
	"fmt"
	"strings"
)

// SetVar is a set variable bounded below by its kernel (elements known to be
// in the set) and above by its envelope (elements that may be in the set).
// kernel ⊆ envelope holds at all times.
type SetVar struct {
	varBase
	kernel   intSet
	envelope intSet
}

// Kind implements Variable.
func (v *SetVar) Kind() VarKind { return KindSet }

// KernelContains reports whether x is forced.
func (v *SetVar) KernelContains(x int) bool { return v.kernel.has(x) }

// EnvelopeContains reports whether x is still possible.
func (v *SetVar) EnvelopeContains(x int) bool { return v.envelope.has(x) }

// Kernel returns the kernel elements in ascending order.
func (v *SetVar) Kernel() []int { return v.kernel.values() }

// Envelope returns the envelope elements in ascending order.
func (v *SetVar) Envelope() []int { return v.envelope.values() }

// KernelSize returns |kernel|.
func (v *SetVar) KernelSize() int { return v.kernel.len() }

// EnvelopeSize returns |envelope|.
func (v *SetVar) EnvelopeSize() int { return v.envelope.len() }

// IsInstantiated reports whether kernel == envelope.
func (v *SetVar) IsInstantiated() bool { return v.kernel.len() == v.envelope.len() }

// DomainSize returns the number of undecided elements.
func (v *SetVar) DomainSize() int { return v.envelope.len() - v.kernel.len() }

func (v *SetVar) String() string {
	return fmt.Sprintf("%s ∈ [%s, %s]", v.name, formatInts(v.Kernel()), formatInts(v.Envelope()))
}

// AddToKernel forces x into the set.
func (v *SetVar) AddToKernel(x int, cause Cause) (bool, error) {
	if v.kernel.has(x) {
		return false, nil
	}
	if !v.envelope.has(x) {
		return false, contradiction(v, "AddToKernel", cause, "%d not in envelope", x)
	}
	v.kernel.add(x)
	k := v.kernel
	v.model.trail.Record(func() { k.remove(x) })
	v.changed(v, EventAddToKernel, x, 0, cause)
	return true, nil
}

// RemoveFromEnvelope excludes x from the set.
func (v *SetVar) RemoveFromEnvelope(x int, cause Cause) (bool, error) {
	if !v.envelope.has(x) {
		return false, nil
	}
	if v.kernel.has(x) {
		return false, contradiction(v, "RemoveFromEnvelope", cause, "%d is in kernel", x)
	}
	v.envelope.remove(x)
	e := v.envelope
	v.model.trail.Record(func() { e.add(x) })
	v.changed(v, EventRemoveFromEnvelope, x, 0, cause)
	return true, nil
}

func (v *SetVar) duplicate(dst *Model) Variable {
	nv := &SetVar{kernel: v.kernel.clone(), envelope: v.envelope.clone()}
	dst.addVar(&nv.varBase, nv, v.name)
	return nv
}

func formatInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, x := range vals {
		parts[i] = fmt.Sprint(x)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
