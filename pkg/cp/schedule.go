package cp

import (
	"fmt"

	"github.com/google/btree"
)

// Schedulable is an element of a propagation strategy: either a group built
// with Queue or Sort, or a leaf produced by a Builder generator. Leaves hold
// pending work (event masks); groups hold the children that have some.
type Schedulable interface {
	// Pending reports whether the element is waiting in its parent.
	Pending() bool
	String() string

	node() *schedNode
	execute() error
	flush()
}

// schedNode is the part of an element its parent manages.
type schedNode struct {
	parent    *Group
	rank      int
	scheduled bool
}

func (n *schedNode) node() *schedNode { return n }

// Pending reports whether the element is waiting in its parent.
func (n *schedNode) Pending() bool { return n.scheduled }

// schedule asks the parent to run el.
func schedule(el Schedulable) {
	if p := el.node().parent; p != nil {
		p.schedule(el)
	}
}

// Iteration decides how much of a group runs each time the group executes.
type Iteration int

const (
	// ClearOut runs children until none is pending, including children
	// that became pending meanwhile.
	ClearOut Iteration = iota
	// PickOne runs a single child and yields back to the parent.
	PickOne
)

func (it Iteration) String() string {
	if it == PickOne {
		return "pickOne"
	}
	return "clearOut"
}

type order int

const (
	orderFIFO order = iota
	orderFixed
)

// Group is a composite element. A Queue group runs pending children in the
// order they became pending; a Sort group always runs the pending child
// that was given first.
type Group struct {
	schedNode
	name     string
	order    order
	iter     Iteration
	children []Schedulable
	fifo     []int
	head     int
	sorted   *btree.BTreeG[int]
}

// Queue creates a first-in first-out group draining with ClearOut.
func Queue(children ...Schedulable) *Group {
	return newGroup(orderFIFO, "queue", children)
}

// Sort creates a fixed-order group draining with ClearOut: children listed
// first take precedence.
func Sort(children ...Schedulable) *Group {
	return newGroup(orderFixed, "sort", children)
}

func newGroup(o order, name string, children []Schedulable) *Group {
	g := &Group{name: name, order: o, iter: ClearOut}
	if o == orderFixed {
		g.sorted = btree.NewOrderedG[int](intSetDegree)
	}
	for _, c := range children {
		g.add(c)
	}
	return g
}

func (g *Group) add(c Schedulable) {
	n := c.node()
	if n.parent != nil {
		panic(fmt.Sprintf("schedule: %s already belongs to %s", c, n.parent))
	}
	n.parent = g
	n.rank = len(g.children)
	g.children = append(g.children, c)
}

// ClearOut sets the iteration mode to ClearOut.
func (g *Group) ClearOut() *Group {
	g.iter = ClearOut
	return g
}

// PickOne sets the iteration mode to PickOne.
func (g *Group) PickOne() *Group {
	g.iter = PickOne
	return g
}

// Named sets the name used in logs.
func (g *Group) Named(name string) *Group {
	g.name = name
	return g
}

// Len returns the number of children.
func (g *Group) Len() int { return len(g.children) }

// Children returns the group's children.
func (g *Group) Children() []Schedulable { return g.children }

func (g *Group) String() string {
	return fmt.Sprintf("%s[%d].%s", g.name, len(g.children), g.iter)
}

func (g *Group) empty() bool {
	if g.order == orderFixed {
		return g.sorted.Len() == 0
	}
	return g.head == len(g.fifo)
}

func (g *Group) size() int {
	if g.order == orderFixed {
		return g.sorted.Len()
	}
	return len(g.fifo) - g.head
}

func (g *Group) schedule(c Schedulable) {
	n := c.node()
	if n.scheduled {
		return
	}
	n.scheduled = true
	if g.order == orderFixed {
		g.sorted.ReplaceOrInsert(n.rank)
	} else {
		g.fifo = append(g.fifo, n.rank)
	}
	if !g.scheduled {
		schedule(g)
	}
}

func (g *Group) pop() Schedulable {
	var r int
	if g.order == orderFixed {
		r, _ = g.sorted.DeleteMin()
	} else {
		r = g.fifo[g.head]
		g.head++
		if g.head == len(g.fifo) {
			g.fifo = g.fifo[:0]
			g.head = 0
		}
	}
	c := g.children[r]
	c.node().scheduled = false
	return c
}

func (g *Group) execute() error {
	if g.iter == PickOne {
		if !g.empty() {
			if err := g.pop().execute(); err != nil {
				return err
			}
		}
		if !g.empty() && !g.scheduled {
			schedule(g)
		}
		return nil
	}
	for !g.empty() {
		if err := g.pop().execute(); err != nil {
			return err
		}
	}
	return nil
}

func (g *Group) flush() {
	for _, c := range g.children {
		c.flush()
	}
	g.fifo = g.fifo[:0]
	g.head = 0
	if g.sorted != nil {
		g.sorted.Clear(false)
	}
	g.scheduled = false
}

// fineElement is a leaf receiving fine-grained events. slot identifies the
// (propagator, variable index) pair inside the element.
type fineElement interface {
	Schedulable
	wake(slot int, mask EventType)
}

type fineSlot struct {
	el   fineElement
	slot int
}

// arcElement is the pair (propagator, variable index).
type arcElement struct {
	schedNode
	eng  *engine
	p    Propagator
	idx  int
	mask EventType
}

func (e *arcElement) wake(_ int, mask EventType) {
	if !e.scheduled {
		e.eng.enqueue()
	}
	e.mask |= mask
	schedule(e)
}

func (e *arcElement) execute() error {
	e.eng.dequeue()
	m := e.mask
	e.mask = 0
	return e.eng.runFine(e.p, e.idx, m)
}

func (e *arcElement) flush() {
	e.mask = 0
	e.scheduled = false
}

func (e *arcElement) String() string { return fmt.Sprintf("arc(%s,%d)", e.p, e.idx) }

// varElement gathers every fine arc of one variable.
type varElement struct {
	schedNode
	eng  *engine
	v    Variable
	arcs []varArc
}

type varArc struct {
	p    Propagator
	idx  int
	mask EventType
}

func (e *varElement) wake(slot int, mask EventType) {
	if !e.scheduled {
		e.eng.enqueue()
	}
	e.arcs[slot].mask |= mask
	schedule(e)
}

func (e *varElement) execute() error {
	e.eng.dequeue()
	for i := range e.arcs {
		a := &e.arcs[i]
		if a.mask == 0 {
			continue
		}
		m := a.mask
		a.mask = 0
		if err := e.eng.runFine(a.p, a.idx, m); err != nil {
			return err
		}
	}
	return nil
}

func (e *varElement) flush() {
	for i := range e.arcs {
		e.arcs[i].mask = 0
	}
	e.scheduled = false
}

func (e *varElement) String() string { return fmt.Sprintf("var(%s)", e.v.Name()) }

// propElement gathers every fine arc of one propagator.
type propElement struct {
	schedNode
	eng   *engine
	p     Propagator
	masks []EventType
}

func (e *propElement) wake(slot int, mask EventType) {
	if !e.scheduled {
		e.eng.enqueue()
	}
	e.masks[slot] |= mask
	schedule(e)
}

func (e *propElement) execute() error {
	e.eng.dequeue()
	for i := range e.masks {
		if e.masks[i] == 0 {
			continue
		}
		m := e.masks[i]
		e.masks[i] = 0
		if err := e.eng.runFine(e.p, i, m); err != nil {
			return err
		}
	}
	return nil
}

func (e *propElement) flush() {
	clear(e.masks)
	e.scheduled = false
}

func (e *propElement) String() string { return fmt.Sprintf("prop(%s)", e.p) }

// coarseElement runs Propagate on one propagator.
type coarseElement struct {
	schedNode
	eng  *engine
	p    Propagator
	mask EventType
}

func (e *coarseElement) wake(mask EventType) {
	if !e.scheduled {
		e.eng.enqueue()
	}
	e.mask |= mask
	schedule(e)
}

func (e *coarseElement) execute() error {
	e.eng.dequeue()
	m := e.mask
	e.mask = 0
	return e.eng.runCoarse(e.p, m)
}

func (e *coarseElement) flush() {
	e.mask = 0
	e.scheduled = false
}

func (e *coarseElement) String() string { return fmt.Sprintf("coarse(%s)", e.p) }
