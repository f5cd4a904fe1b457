// Package cp implements the propagation kernel of a finite-domain constraint
// solver: variable domains, the incremental delta-event protocol, the
// propagator contract and the scheduler that runs propagators to a global
// fixpoint.
//
// # Domains
//
// Three variable kinds are provided:
//
//	IntVar   bounded integer {lb, ub}
//	SetVar   set of integers {kernel ⊆ envelope}
//	GraphVar directed graph over a fixed node set {kernel ⊆ envelope}
//
// Every narrowing operation takes the Cause responsible for it and returns
// (changed bool, err error). A non-nil error is always a *Contradiction and
// means the operation would have broken a domain invariant; the domain is left
// untouched. Each effective change appends exactly one DeltaEvent to the
// variable's delta log and wakes the propagators subscribed to that event kind.
//
// # Propagators
//
// A propagator embeds PropagatorBase and implements Propagator. The engine
// calls Propagate for full (coarse) propagation and PropagateOn for the
// fine-grained reaction to events on one of its variables. Propagators that
// react to individual events read them through a DeltaMonitor bracketed by
// Freeze and Unfreeze.
//
// # Scheduling
//
// The order in which pending propagators run is decided by a Strategy built
// from small generators (arcs, variables, propagators, coarse elements) and two
// combinators, Queue and Sort, each draining either to exhaustion (ClearOut) or
// one element at a time (PickOne). All strategies reach the same fixpoint.
//
// # State
//
// Domains and propagator states live in reversible cells of the model's trail.
// The kernel never widens a domain; only popping a trail world does.
//
// Example:
//
//	m := cp.NewModel("demo")
//	x, _ := m.NewIntVar("x", 0, 3)
//	y, _ := m.NewIntVar("y", 0, 3)
//	geq, _ := cp.NewGreaterOrEqualXYC(x, y, 5)
//	_ = m.Post(cp.NewConstraint("x+y>=5", geq))
//	s, _ := cp.NewSolver(m)
//	err := s.Propagate(context.Background()) // x ∈ [2,3], y ∈ [2,3]
package cp
