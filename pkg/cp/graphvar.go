package cp

import (
	"fmt"
	"strings"
)

// Arc is a directed edge between two nodes of a graph variable.
type Arc struct {
	From, To int
}

func (a Arc) String() string { return fmt.Sprintf("%d->%d", a.From, a.To) }

// GraphView is the read-only surface of a kernel or envelope graph.
// Neighbour enumeration is ascending.
type GraphView interface {
	NbNodes() int
	HasArc(from, to int) bool
	Successors(node int) []int
	Predecessors(node int) []int
	// FirstSuccessor returns the smallest successor, or -1.
	FirstSuccessor(node int) int
	// FirstPredecessor returns the smallest predecessor, or -1.
	FirstPredecessor(node int) int
	ArcCount() int
}

// digraph is an adjacency structure over a fixed node set.
type digraph struct {
	succ []intSet
	pred []intSet
	arcs int
}

func newDigraph(n int) *digraph {
	g := &digraph{succ: make([]intSet, n), pred: make([]intSet, n)}
	for i := 0; i < n; i++ {
		g.succ[i] = newIntSet()
		g.pred[i] = newIntSet()
	}
	return g
}

func (g *digraph) NbNodes() int                  { return len(g.succ) }
func (g *digraph) HasArc(from, to int) bool      { return g.succ[from].has(to) }
func (g *digraph) Successors(node int) []int     { return g.succ[node].values() }
func (g *digraph) Predecessors(node int) []int   { return g.pred[node].values() }
func (g *digraph) FirstSuccessor(node int) int   { return g.succ[node].first() }
func (g *digraph) FirstPredecessor(node int) int { return g.pred[node].first() }
func (g *digraph) ArcCount() int                 { return g.arcs }

func (g *digraph) addArc(from, to int) bool {
	if !g.succ[from].add(to) {
		return false
	}
	g.pred[to].add(from)
	g.arcs++
	return true
}

func (g *digraph) removeArc(from, to int) bool {
	if !g.succ[from].remove(to) {
		return false
	}
	g.pred[to].remove(from)
	g.arcs--
	return true
}

func (g *digraph) clone() *digraph {
	c := &digraph{succ: make([]intSet, len(g.succ)), pred: make([]intSet, len(g.pred)), arcs: g.arcs}
	for i := range g.succ {
		c.succ[i] = g.succ[i].clone()
		c.pred[i] = g.pred[i].clone()
	}
	return c
}

func (g *digraph) arcList() []Arc {
	out := make([]Arc, 0, g.arcs)
	for i := range g.succ {
		for _, j := range g.succ[i].values() {
			out = append(out, Arc{From: i, To: j})
		}
	}
	return out
}

// GraphVar is a directed graph variable over nodes 0..n-1. Arcs in the kernel
// are mandatory, arcs outside the envelope are excluded.
type GraphVar struct {
	varBase
	kernel   *digraph
	envelope *digraph
}

// Kind implements Variable.
func (v *GraphVar) Kind() VarKind { return KindGraph }

// NbNodes returns the size of the node set.
func (v *GraphVar) NbNodes() int { return v.envelope.NbNodes() }

// Kernel returns the mandatory arcs.
func (v *GraphVar) Kernel() GraphView { return v.kernel }

// Envelope returns the possible arcs.
func (v *GraphVar) Envelope() GraphView { return v.envelope }

// KernelArcs lists mandatory arcs ordered by (from, to).
func (v *GraphVar) KernelArcs() []Arc { return v.kernel.arcList() }

// EnvelopeArcs lists possible arcs ordered by (from, to).
func (v *GraphVar) EnvelopeArcs() []Arc { return v.envelope.arcList() }

// IsInstantiated reports whether kernel == envelope.
func (v *GraphVar) IsInstantiated() bool { return v.kernel.arcs == v.envelope.arcs }

// DomainSize returns the number of undecided arcs.
func (v *GraphVar) DomainSize() int { return v.envelope.arcs - v.kernel.arcs }

func (v *GraphVar) String() string {
	return fmt.Sprintf("%s ∈ [%s, %s]", v.name, formatArcs(v.KernelArcs()), formatArcs(v.EnvelopeArcs()))
}

func (v *GraphVar) checkNodes(op string, from, to int) error {
	n := v.NbNodes()
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%s %s: arc %d->%d outside [0,%d): %w", op, v.name, from, to, n, ErrNodeOutOfRange)
	}
	return nil
}

// EnforceArc makes (from, to) mandatory.
func (v *GraphVar) EnforceArc(from, to int, cause Cause) (bool, error) {
	if err := v.checkNodes("EnforceArc", from, to); err != nil {
		return false, err
	}
	if v.kernel.HasArc(from, to) {
		return false, nil
	}
	if !v.envelope.HasArc(from, to) {
		return false, contradiction(v, "EnforceArc", cause, "%d->%d not in envelope", from, to)
	}
	k := v.kernel
	k.addArc(from, to)
	v.model.trail.Record(func() { k.removeArc(from, to) })
	v.changed(v, EventEnforceArc, from, to, cause)
	return true, nil
}

// RemoveArc excludes (from, to).
func (v *GraphVar) RemoveArc(from, to int, cause Cause) (bool, error) {
	if err := v.checkNodes("RemoveArc", from, to); err != nil {
		return false, err
	}
	if !v.envelope.HasArc(from, to) {
		return false, nil
	}
	if v.kernel.HasArc(from, to) {
		return false, contradiction(v, "RemoveArc", cause, "%d->%d is in kernel", from, to)
	}
	e := v.envelope
	e.removeArc(from, to)
	v.model.trail.Record(func() { e.addArc(from, to) })
	v.changed(v, EventRemoveArc, from, to, cause)
	return true, nil
}

func (v *GraphVar) duplicate(dst *Model) Variable {
	nv := &GraphVar{kernel: v.kernel.clone(), envelope: v.envelope.clone()}
	dst.addVar(&nv.varBase, nv, v.name)
	return nv
}

func formatArcs(arcs []Arc) string {
	parts := make([]string, len(arcs))
	for i, a := range arcs {
		parts[i] = a.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
