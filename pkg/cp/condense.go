package cp

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/gitrdm/gokanprop/pkg/trail"
)

// Condensation is the reduced graph of the strongly connected components of
// a directed graph, kept in reversible cells so that a propagator may refine
// it during search. Components are numbered in topological order of the
// reduced graph, ties broken by their smallest node.
type Condensation struct {
	count *trail.Int
	sccOf []*trail.Int
	next  []*trail.Int
	prev  []*trail.Int
}

// Condense computes the condensation of g. Cells live on t.
func Condense(t *trail.Trail, g GraphView) *Condensation {
	n := g.NbNodes()
	c := &Condensation{
		count: trail.NewInt(t, 0),
		sccOf: make([]*trail.Int, n),
		next:  make([]*trail.Int, n),
		prev:  make([]*trail.Int, n),
	}
	for i := range n {
		c.sccOf[i] = trail.NewInt(t, -1)
		c.next[i] = trail.NewInt(t, -1)
		c.prev[i] = trail.NewInt(t, -1)
	}
	c.Recompute(g)
	return c
}

// Recompute rewrites the cells from the current arcs of g.
func (c *Condensation) Recompute(g GraphView) {
	n := g.NbNodes()
	if n != len(c.sccOf) {
		invariant("Condensation.Recompute", "graph has %d nodes, condensation %d", n, len(c.sccOf))
	}
	dg := simple.NewDirectedGraph()
	for i := range n {
		dg.AddNode(simple.Node(i))
	}
	for u := range n {
		for _, v := range g.Successors(u) {
			if u != v {
				dg.SetEdge(dg.NewEdge(simple.Node(u), simple.Node(v)))
			}
		}
	}
	comps := topo.TarjanSCC(dg)

	// provisional ids ordered by smallest member
	tmp := make([]int, n)
	minNode := make([]int, len(comps))
	for i, comp := range comps {
		minNode[i] = n
		for _, nd := range comp {
			id := int(nd.ID())
			tmp[id] = i
			minNode[i] = min(minNode[i], id)
		}
	}
	k := len(comps)
	succ := make([][]int, k)
	indeg := make([]int, k)
	for u := range n {
		for _, v := range g.Successors(u) {
			a, b := tmp[u], tmp[v]
			if a != b && !slices.Contains(succ[a], b) {
				succ[a] = append(succ[a], b)
				indeg[b]++
			}
		}
	}

	// Kahn's algorithm, smallest member first.
	rank := make([]int, k)
	ready := make([]int, 0, k)
	for i := range k {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	for r := 0; len(ready) > 0; r++ {
		best := 0
		for i := range ready {
			if minNode[ready[i]] < minNode[ready[best]] {
				best = i
			}
		}
		cur := ready[best]
		ready = slices.Delete(ready, best, best+1)
		rank[cur] = r
		for _, s := range succ[cur] {
			indeg[s]--
			if indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	c.count.Set(k)
	for u := range n {
		c.sccOf[u].Set(rank[tmp[u]])
	}
	first := func(cands []int) int {
		best := -1
		for _, x := range cands {
			if best < 0 || rank[x] < best {
				best = rank[x]
			}
		}
		return best
	}
	preds := make([][]int, k)
	for a := range k {
		for _, b := range succ[a] {
			preds[b] = append(preds[b], a)
		}
	}
	for a := range k {
		c.next[rank[a]].Set(first(succ[a]))
		c.prev[rank[a]].Set(first(preds[a]))
	}
	for r := k; r < n; r++ {
		c.next[r].Set(-1)
		c.prev[r].Set(-1)
	}
}

// Count returns the number of components.
func (c *Condensation) Count() int { return c.count.Get() }

// NbNodes returns the size of the condensed graph.
func (c *Condensation) NbNodes() int { return len(c.sccOf) }

// SCCOf returns the component of node.
func (c *Condensation) SCCOf(node int) int { return c.sccOf[node].Get() }

// Next returns the first successor of component scc in the reduced graph,
// or -1.
func (c *Condensation) Next(scc int) int { return c.next[scc].Get() }

// Prev returns the first predecessor of component scc, or -1.
func (c *Condensation) Prev(scc int) int { return c.prev[scc].Get() }

// SetLinks overrides the component of every node and the reduced-graph
// links. It serves callers maintaining the condensation themselves;
// sccOf, next and prev are indexed by node, component and component.
func (c *Condensation) SetLinks(sccOf, next, prev []int) error {
	n := len(c.sccOf)
	if len(sccOf) != n || len(next) > n || len(prev) != len(next) {
		return fmt.Errorf("condensation links: got %d/%d/%d entries for %d nodes", len(sccOf), len(next), len(prev), n)
	}
	for i, s := range sccOf {
		if s < -1 || s >= len(next) {
			return fmt.Errorf("condensation links: node %d in component %d of %d", i, s, len(next))
		}
		c.sccOf[i].Set(s)
	}
	for r := range next {
		if next[r] < -1 || next[r] >= len(next) || prev[r] < -1 || prev[r] >= len(next) {
			return fmt.Errorf("condensation links: component %d linked to %d/%d", r, next[r], prev[r])
		}
	}
	c.count.Set(len(next))
	for r := range n {
		nx, pv := -1, -1
		if r < len(next) {
			nx, pv = next[r], prev[r]
		}
		c.next[r].Set(nx)
		c.prev[r].Set(pv)
	}
	return nil
}

func (c *Condensation) duplicate(d *Duplicator) *Condensation {
	if nc, ok := d.Lookup(c); ok {
		return nc.(*Condensation)
	}
	nc := &Condensation{
		count: d.Int(c.count),
		sccOf: make([]*trail.Int, len(c.sccOf)),
		next:  make([]*trail.Int, len(c.next)),
		prev:  make([]*trail.Int, len(c.prev)),
	}
	for i := range c.sccOf {
		nc.sccOf[i] = d.Int(c.sccOf[i])
		nc.next[i] = d.Int(c.next[i])
		nc.prev[i] = d.Int(c.prev[i])
	}
	d.Store(c, nc)
	return nc
}
