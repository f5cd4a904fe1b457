package cp

import "strings"

// EventType is a bit mask describing domain modifications and propagation
// requests. Propagators declare the events they react to as a mask and
// receive the matching subset of an event when woken.
type EventType uint32

const (
	// EventInstantiate is set when a modification leaves an integer
	// variable with a single value.
	EventInstantiate EventType = 1 << iota
	// EventIncLow is set when an integer lower bound increases.
	EventIncLow
	// EventDecUpp is set when an integer upper bound decreases.
	EventDecUpp
	// EventAddToKernel is set when an element is forced into a set kernel.
	EventAddToKernel
	// EventRemoveFromEnvelope is set when an element leaves a set envelope.
	EventRemoveFromEnvelope
	// EventEnforceArc is set when an arc is forced into a graph kernel.
	EventEnforceArc
	// EventRemoveArc is set when an arc leaves a graph envelope.
	EventRemoveArc
	// EventFullPropagation requests propagation from scratch.
	EventFullPropagation
	// EventCustomPropagation requests a coarse propagation triggered by
	// events or by the propagator itself.
	EventCustomPropagation
)

const (
	// EventBound covers any bound modification.
	EventBound = EventIncLow | EventDecUpp
	// EventAll covers every domain modification.
	EventAll = EventInstantiate | EventBound | EventAddToKernel |
		EventRemoveFromEnvelope | EventEnforceArc | EventRemoveArc
)

var eventNames = []struct {
	e    EventType
	name string
}{
	{EventInstantiate, "Instantiate"},
	{EventIncLow, "IncLow"},
	{EventDecUpp, "DecUpp"},
	{EventAddToKernel, "AddToKernel"},
	{EventRemoveFromEnvelope, "RemoveFromEnvelope"},
	{EventEnforceArc, "EnforceArc"},
	{EventRemoveArc, "RemoveArc"},
	{EventFullPropagation, "FullPropagation"},
	{EventCustomPropagation, "CustomPropagation"},
}

// Has reports whether every bit of o is set in e.
func (e EventType) Has(o EventType) bool { return e&o == o }

// Any reports whether e and o share a bit.
func (e EventType) Any(o EventType) bool { return e&o != 0 }

// Primary returns the name of the most significant domain event in e, used
// as a low-cardinality metric label.
func (e EventType) Primary() string {
	if e.Any(EventInstantiate) {
		return "Instantiate"
	}
	for _, en := range eventNames {
		if e.Any(en.e) {
			return en.name
		}
	}
	return "None"
}

// String renders the mask as names joined by '|'.
func (e EventType) String() string {
	if e == 0 {
		return "None"
	}
	var parts []string
	for _, en := range eventNames {
		if e.Any(en.e) {
			parts = append(parts, en.name)
		}
	}
	return strings.Join(parts, "|")
}
