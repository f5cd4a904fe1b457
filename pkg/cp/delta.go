package cp

import "github.com/gitrdm/gokanprop/pkg/trail"

// DeltaEvent is one entry of a variable's delta log.
//
// Payload by kind:
//
//	IncLow, DecUpp           A = previous bound, B = new bound
//	Instantiate (alone)      A = B = value
//	AddToKernel              A = element
//	RemoveFromEnvelope       A = element
//	EnforceArc, RemoveArc    A = from, B = to
type DeltaEvent struct {
	Kind  EventType
	A, B  int
	Cause Cause
}

// Delta is the append-only event log of one variable. The log only holds the
// events of the current trail world instance: it is emptied lazily the first
// time it is touched after a Push or Pop. At a fixpoint every subscribed
// monitor has consumed the log, so nothing pending is lost by the reset.
type Delta struct {
	events []DeltaEvent
	stamp  uint64
	trail  *trail.Trail
}

func newDelta(t *trail.Trail) *Delta {
	return &Delta{trail: t, stamp: t.Stamp()}
}

func (d *Delta) sync() {
	if s := d.trail.Stamp(); s != d.stamp {
		d.events = d.events[:0]
		d.stamp = s
	}
}

func (d *Delta) append(e DeltaEvent) {
	d.sync()
	d.events = append(d.events, e)
}

// Len returns the number of events recorded in the current world instance.
func (d *Delta) Len() int {
	d.sync()
	return len(d.events)
}

// DeltaMonitor is one propagator's read cursor over a Delta.
//
// Usage is always:
//
//	m.Freeze()
//	err := m.ForEachValue(EventAddToKernel, fn)
//	m.Unfreeze()
//
// Freeze fixes the replay window to the events appended since the last
// Unfreeze; events appended while frozen (including those caused by the
// replay itself) are left for the next window. Events caused by the owning
// propagator are never replayed. Freezing twice or replaying while not frozen
// panics with an *InvariantError.
type DeltaMonitor struct {
	delta  *Delta
	owner  Cause
	stamp  uint64
	first  int
	last   int
	frozen bool
}

func newDeltaMonitor(d *Delta, owner Cause) *DeltaMonitor {
	d.sync()
	return &DeltaMonitor{delta: d, owner: owner, stamp: d.stamp, first: len(d.events)}
}

func (m *DeltaMonitor) resync() {
	m.delta.sync()
	if m.stamp != m.delta.stamp {
		m.stamp = m.delta.stamp
		m.first = 0
	}
}

// Freeze opens a replay window.
func (m *DeltaMonitor) Freeze() {
	if m.frozen {
		invariant("DeltaMonitor.Freeze", "monitor already frozen")
	}
	m.resync()
	m.last = len(m.delta.events)
	m.frozen = true
}

// Unfreeze closes the replay window and marks its events consumed.
func (m *DeltaMonitor) Unfreeze() {
	if !m.frozen {
		invariant("DeltaMonitor.Unfreeze", "monitor not frozen")
	}
	m.first = m.last
	m.frozen = false
}

// Discard marks every recorded event consumed. Full propagation calls it
// because it recomputes from the current domains instead of the history.
func (m *DeltaMonitor) Discard() {
	if m.frozen {
		invariant("DeltaMonitor.Discard", "monitor is frozen")
	}
	m.resync()
	m.first = len(m.delta.events)
}

// Pending returns the number of unread events, ignoring kind and cause.
func (m *DeltaMonitor) Pending() int {
	if m.frozen {
		return m.last - m.first
	}
	m.resync()
	return len(m.delta.events) - m.first
}

// ForEach replays the window's events whose kind intersects kind, in append
// order, stopping at the first error.
func (m *DeltaMonitor) ForEach(kind EventType, fn func(DeltaEvent) error) error {
	if !m.frozen {
		invariant("DeltaMonitor.ForEach", "replay without freeze")
	}
	for i := m.first; i < m.last; i++ {
		e := m.delta.events[i]
		if !e.Kind.Any(kind) || e.Cause == m.owner {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// ForEachValue replays set element events.
func (m *DeltaMonitor) ForEachValue(kind EventType, fn func(v int) error) error {
	return m.ForEach(kind, func(e DeltaEvent) error { return fn(e.A) })
}

// ForEachArc replays graph arc events.
func (m *DeltaMonitor) ForEachArc(kind EventType, fn func(from, to int) error) error {
	return m.ForEach(kind, func(e DeltaEvent) error { return fn(e.A, e.B) })
}
