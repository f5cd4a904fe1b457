package cp

import "fmt"

// PosInTourGraphReactor links a graph variable describing a Hamiltonian
// path from node 0 to node n-1 with one position variable per node.
//
// Position bounds come from two breadth-first traversals of the envelope: a
// node at depth k from node 0 cannot be visited before step k, and a node at
// depth k from node n-1 (following arcs backwards) cannot be visited after
// step n-1-k. With a Condensation, the traversal visits strongly connected
// components one after the other, so every node of a later component is
// placed after all nodes of the earlier ones.
//
// Graph deltas are handled on the fly: an enforced arc (u,v) ties
// pos(u) < pos(v), and a removed arc (u,v) forbids pos(v) = pos(u)+1 once
// pos(u) is fixed (and symmetrically).
type PosInTourGraphReactor struct {
	PropagatorBase
	g   *GraphVar
	pos []*IntVar
	rg  *Condensation
	gdm *DeltaMonitor

	done    []bool
	current []int
	next    []int
	nextSCC []int
}

// NewPosInTourGraphReactor creates the reactor. pos[i] is the position of
// node i; rg may be nil.
func NewPosInTourGraphReactor(g *GraphVar, pos []*IntVar, rg *Condensation) (*PosInTourGraphReactor, error) {
	if g == nil {
		return nil, fmt.Errorf("pos-in-tour: nil graph variable")
	}
	n := g.NbNodes()
	if len(pos) != n {
		return nil, fmt.Errorf("pos-in-tour: %d position variables for %d nodes", len(pos), n)
	}
	if rg != nil && rg.NbNodes() != n {
		return nil, fmt.Errorf("pos-in-tour: condensation over %d nodes, graph has %d", rg.NbNodes(), n)
	}
	vars := make([]Variable, 0, n+1)
	vars = append(vars, g)
	for i, v := range pos {
		if v == nil {
			return nil, fmt.Errorf("pos-in-tour: nil position variable %d", i)
		}
		vars = append(vars, v)
	}
	base, err := NewPropagatorBase(fmt.Sprintf("posInTour(%s)", g.Name()), vars, PriorityLinear, true)
	if err != nil {
		return nil, err
	}
	p := &PosInTourGraphReactor{
		PropagatorBase: base,
		g:              g,
		pos:            append([]*IntVar(nil), pos...),
		rg:             rg,
		done:           make([]bool, n),
		current:        make([]int, 0, n),
		next:           make([]int, 0, n),
		nextSCC:        make([]int, 0, n),
	}
	p.gdm = g.Monitor(p)
	return p, nil
}

func (p *PosInTourGraphReactor) PropagationConditions(int) EventType {
	return EventRemoveArc | EventEnforceArc | EventDecUpp | EventIncLow
}

// Propagate alternates the arc reactions over the whole graph and the
// traversals until the positions stop moving. A full propagation also drops
// the pending graph deltas, which the replay covers.
func (p *PosInTourGraphReactor) Propagate(mask EventType) error {
	if mask.Has(EventFullPropagation) {
		p.gdm.Discard()
	}
	for {
		before := p.boundsSum()
		if err := p.replayGraph(); err != nil {
			return err
		}
		if err := p.traverse(); err != nil {
			return err
		}
		if p.boundsSum() == before {
			return nil
		}
	}
}

// PropagateOn consumes graph deltas and defers the traversal to a coarse
// run.
func (p *PosInTourGraphReactor) PropagateOn(idx int, _ EventType) error {
	if idx == 0 {
		p.gdm.Freeze()
		err := p.gdm.ForEachArc(EventEnforceArc, p.enfArc)
		if err == nil {
			err = p.gdm.ForEachArc(EventRemoveArc, p.remArc)
		}
		p.gdm.Unfreeze()
		if err != nil {
			return err
		}
	}
	p.ForcePropagate(EventCustomPropagation)
	return nil
}

// IsEntailed is false once a mandatory arc can no longer go forward in
// position. It is true when the graph and every position are fixed and each
// arc steps exactly one position forward.
func (p *PosInTourGraphReactor) IsEntailed() Entailment {
	arcs := p.g.KernelArcs()
	for _, a := range arcs {
		if p.pos[a.To].UB() <= p.pos[a.From].LB() {
			return EntailFalse
		}
	}
	if !p.g.IsInstantiated() {
		return EntailUndefined
	}
	for _, v := range p.pos {
		if !v.IsInstantiated() {
			return EntailUndefined
		}
	}
	for _, a := range arcs {
		if p.pos[a.To].Value() != p.pos[a.From].Value()+1 {
			return EntailFalse
		}
	}
	return EntailTrue
}

func (p *PosInTourGraphReactor) Duplicate(d *Duplicator) (Propagator, error) {
	g, err := d.GraphVar(p.g)
	if err != nil {
		return nil, err
	}
	pos, err := d.IntVars(p.pos)
	if err != nil {
		return nil, err
	}
	var rg *Condensation
	if p.rg != nil {
		rg = p.rg.duplicate(d)
	}
	return NewPosInTourGraphReactor(g, pos, rg)
}

func (p *PosInTourGraphReactor) boundsSum() int {
	s := 0
	for _, v := range p.pos {
		s += v.LB() - v.UB()
	}
	return s
}

func (p *PosInTourGraphReactor) replayGraph() error {
	n := len(p.pos)
	ker, env := p.g.Kernel(), p.g.Envelope()
	for _, a := range p.g.KernelArcs() {
		if err := p.enfArc(a.From, a.To); err != nil {
			return err
		}
	}
	for i := range n {
		if ker.FirstSuccessor(i) >= 0 {
			continue
		}
		for j := range n {
			if !env.HasArc(i, j) {
				if err := p.remArc(i, j); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *PosInTourGraphReactor) enfArc(from, to int) error {
	if _, err := p.pos[from].UpdateUpperBound(p.pos[to].UB()-1, p); err != nil {
		return err
	}
	_, err := p.pos[to].UpdateLowerBound(p.pos[from].LB()+1, p)
	return err
}

func (p *PosInTourGraphReactor) remArc(from, to int) error {
	if from == to {
		return nil
	}
	if f := p.pos[from]; f.IsInstantiated() {
		if _, err := p.pos[to].RemoveValue(f.Value()+1, p); err != nil {
			return err
		}
	}
	if t := p.pos[to]; t.IsInstantiated() {
		if _, err := p.pos[from].RemoveValue(t.Value()-1, p); err != nil {
			return err
		}
	}
	return nil
}

func (p *PosInTourGraphReactor) traverse() error {
	if p.rg == nil {
		if err := p.bfs(); err != nil {
			return err
		}
		return p.bfsFromEnd()
	}
	if err := p.bfsSCC(); err != nil {
		return err
	}
	return p.bfsFromEndSCC()
}

func (p *PosInTourGraphReactor) reset(start int) {
	clear(p.done)
	p.current = p.current[:0]
	p.next = append(p.next[:0], start)
	p.nextSCC = p.nextSCC[:0]
	p.done[start] = true
}

// swap makes the pending layer current and empties the pending one.
func (p *PosInTourGraphReactor) swap() {
	p.current, p.next = p.next, p.current[:0]
}

func (p *PosInTourGraphReactor) bfs() error {
	env := p.g.Envelope()
	p.reset(0)
	for level := 0; len(p.next) > 0; level++ {
		p.swap()
		for _, x := range p.current {
			if _, err := p.pos[x].UpdateLowerBound(level, p); err != nil {
				return err
			}
			for _, j := range env.Successors(x) {
				if !p.done[j] {
					p.done[j] = true
					p.next = append(p.next, j)
				}
			}
		}
	}
	return nil
}

func (p *PosInTourGraphReactor) bfsFromEnd() error {
	env := p.g.Envelope()
	n := len(p.pos)
	p.reset(n - 1)
	for level := n - 1; len(p.next) > 0; level-- {
		p.swap()
		for _, x := range p.current {
			if _, err := p.pos[x].UpdateUpperBound(level, p); err != nil {
				return err
			}
			for _, j := range env.Predecessors(x) {
				if !p.done[j] {
					p.done[j] = true
					p.next = append(p.next, j)
				}
			}
		}
	}
	return nil
}

// visit queues j in the current layer when it lies in component scc, or
// among the seeds of the following component when it lies in follow. Nodes
// of any other component are left undiscovered.
func (p *PosInTourGraphReactor) visit(j, scc, follow int) {
	if p.done[j] {
		return
	}
	switch p.rg.SCCOf(j) {
	case scc:
		p.done[j] = true
		p.next = append(p.next, j)
	case follow:
		p.done[j] = true
		p.nextSCC = append(p.nextSCC, j)
	}
}

// bfsSCC is bfs restricted to one component at a time; the nodes reached in
// the next component seed its traversal, which starts at the number of
// nodes already placed.
func (p *PosInTourGraphReactor) bfsSCC() error {
	env := p.g.Envelope()
	p.reset(0)
	level, placed, hops := 0, 0, 0
	for scc := p.rg.SCCOf(0); scc != -1; scc = p.rg.Next(scc) {
		if hops++; hops > p.rg.Count() {
			invariant("PosInTourGraphReactor.bfsSCC", "component chain longer than %d components", p.rg.Count())
		}
		succ := p.rg.Next(scc)
		for ; len(p.next) > 0; level++ {
			p.swap()
			for _, x := range p.current {
				placed++
				if _, err := p.pos[x].UpdateLowerBound(level, p); err != nil {
					return err
				}
				for _, j := range env.Successors(x) {
					p.visit(j, scc, succ)
				}
			}
		}
		p.next, p.nextSCC = p.nextSCC, p.next[:0]
		// Every layer holds a node, so only a corrupted condensation (caught
		// by the hop guard above in practice) can push level past placed.
		if level > placed {
			invariant("PosInTourGraphReactor.bfsSCC", "level %d beyond %d placed nodes in component %d", level, placed, scc)
		}
		level = placed
	}
	return nil
}

func (p *PosInTourGraphReactor) bfsFromEndSCC() error {
	env := p.g.Envelope()
	n := len(p.pos)
	p.reset(n - 1)
	level, remaining, hops := n-1, n-1, 0
	for scc := p.rg.SCCOf(n - 1); scc != -1; scc = p.rg.Prev(scc) {
		if hops++; hops > p.rg.Count() {
			invariant("PosInTourGraphReactor.bfsFromEndSCC", "component chain longer than %d components", p.rg.Count())
		}
		pred := p.rg.Prev(scc)
		for ; len(p.next) > 0; level-- {
			p.swap()
			for _, x := range p.current {
				remaining--
				if _, err := p.pos[x].UpdateUpperBound(level, p); err != nil {
					return err
				}
				for _, j := range env.Predecessors(x) {
					p.visit(j, scc, pred)
				}
			}
		}
		p.next, p.nextSCC = p.nextSCC, p.next[:0]
		// Mirror of the forward check.
		if level < remaining {
			invariant("PosInTourGraphReactor.bfsFromEndSCC", "level %d below %d remaining nodes in component %d", level, remaining, scc)
		}
		level = remaining
	}
	return nil
}
