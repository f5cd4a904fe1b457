package cp

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Strategy assembles the scheduling structure of a solver. Make receives a
// Builder exposing the model's propagators and variables and the element
// generators, and returns the root group.
//
// Whatever the structure, every propagator must get exactly one coarse
// element and every fine-reacting propagator exactly one fine element per
// variable; Builder enforces this, which is what makes all strategies reach
// the same fixpoint.
type Strategy struct {
	Name string
	Make func(b *Builder) *Group
}

// DefaultStrategy names the strategy used when none is configured.
const DefaultStrategy = "two-queues-with-arcs"

// ErrUnknownStrategy is returned by LookupStrategy.
var ErrUnknownStrategy = errors.New("unknown propagation strategy")

// Builder hands out schedulable elements and records which element receives
// the events of each (propagator, variable index) pair.
type Builder struct {
	eng    *engine
	fine   [][]fineSlot
	coarse []*coarseElement
	errs   []error
}

func newBuilder(e *engine) *Builder {
	props := e.model.props
	b := &Builder{eng: e, fine: make([][]fineSlot, len(props)), coarse: make([]*coarseElement, len(props))}
	for i, p := range props {
		b.fine[i] = make([]fineSlot, p.Base().NbVars())
	}
	return b
}

// Propagators returns every propagator of the model.
func (b *Builder) Propagators() []Propagator { return b.eng.model.props }

// Variables returns every variable of the model.
func (b *Builder) Variables() []Variable { return b.eng.model.vars }

// ByPriority splits props into buckets of equal priority, cheapest first.
func (b *Builder) ByPriority(props []Propagator) [][]Propagator {
	buckets := map[Priority][]Propagator{}
	for _, p := range props {
		pr := p.Base().Priority()
		buckets[pr] = append(buckets[pr], p)
	}
	keys := make([]Priority, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([][]Propagator, len(keys))
	for i, k := range keys {
		out[i] = buckets[k]
	}
	return out
}

// SortByPriority returns props ordered by increasing priority, keeping the
// posting order among equals.
func (b *Builder) SortByPriority(props []Propagator) []Propagator {
	out := slices.Clone(props)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Base().Priority() < out[j].Base().Priority()
	})
	return out
}

func (b *Builder) bind(p Propagator, idx int, el fineElement, slot int) {
	id := p.Base().ID()
	if b.fine[id][idx].el != nil {
		b.errs = append(b.errs, fmt.Errorf("%s var %d: fine events bound twice", p, idx))
		return
	}
	b.fine[id][idx] = fineSlot{el: el, slot: slot}
}

// Arcs generates one element per (fine propagator, variable index).
func (b *Builder) Arcs(props []Propagator) []Schedulable {
	var out []Schedulable
	for _, p := range props {
		if !p.Base().ReactsOnFineEvents() {
			continue
		}
		for i := range p.Base().NbVars() {
			el := &arcElement{eng: b.eng, p: p, idx: i}
			b.bind(p, i, el, 0)
			out = append(out, el)
		}
	}
	return out
}

// Vars generates one element per variable, gathering the fine arcs of the
// propagators subscribed to it.
func (b *Builder) Vars(vars []Variable) []Schedulable {
	var out []Schedulable
	for _, v := range vars {
		el := &varElement{eng: b.eng, v: v}
		for _, s := range v.base().subs {
			if !s.p.Base().ReactsOnFineEvents() {
				continue
			}
			b.bind(s.p, s.idx, el, len(el.arcs))
			el.arcs = append(el.arcs, varArc{p: s.p, idx: s.idx})
		}
		if len(el.arcs) > 0 {
			out = append(out, el)
		}
	}
	return out
}

// Props generates one fine element per fine propagator.
func (b *Builder) Props(props []Propagator) []Schedulable {
	var out []Schedulable
	for _, p := range props {
		if !p.Base().ReactsOnFineEvents() {
			continue
		}
		el := &propElement{eng: b.eng, p: p, masks: make([]EventType, p.Base().NbVars())}
		for i := range p.Base().NbVars() {
			b.bind(p, i, el, i)
		}
		out = append(out, el)
	}
	return out
}

// Coarses generates one coarse element per propagator.
func (b *Builder) Coarses(props []Propagator) []Schedulable {
	out := make([]Schedulable, 0, len(props))
	for _, p := range props {
		id := p.Base().ID()
		if b.coarse[id] != nil {
			b.errs = append(b.errs, fmt.Errorf("%s: coarse element bound twice", p))
			continue
		}
		el := &coarseElement{eng: b.eng, p: p}
		b.coarse[id] = el
		out = append(out, el)
	}
	return out
}

func (b *Builder) validate() error {
	for id, p := range b.eng.model.props {
		if b.coarse[id] == nil {
			b.errs = append(b.errs, fmt.Errorf("%s: no coarse element", p))
		}
		if !p.Base().ReactsOnFineEvents() {
			continue
		}
		for i, s := range b.fine[id] {
			if s.el == nil {
				b.errs = append(b.errs, fmt.Errorf("%s var %d: no fine element", p, i))
			}
		}
	}
	return errors.Join(b.errs...)
}

func groups(gs []*Group) []Schedulable {
	out := make([]Schedulable, len(gs))
	for i, g := range gs {
		out[i] = g
	}
	return out
}

var strategies = map[string]Strategy{}

// RegisterStrategy makes a strategy available by name.
func RegisterStrategy(s Strategy) {
	strategies[s.Name] = s
}

// LookupStrategy returns a registered strategy.
func LookupStrategy(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("%w %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// StrategyNames lists registered strategies alphabetically.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for n := range strategies {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func init() {
	RegisterStrategy(Strategy{Name: "one-queue-with-arcs", Make: func(b *Builder) *Group {
		ps := b.Propagators()
		return Queue(append(b.Arcs(ps), b.Coarses(ps)...)...).ClearOut()
	}})
	RegisterStrategy(Strategy{Name: "two-queues-with-arcs", Make: func(b *Builder) *Group {
		ps := b.Propagators()
		arcs := Queue(b.Arcs(ps)...).Named("arcs").ClearOut()
		coarses := Queue(b.Coarses(ps)...).Named("coarses").PickOne()
		return Sort(arcs, coarses).ClearOut()
	}})
	RegisterStrategy(Strategy{Name: "priority-queues-with-arcs", Make: func(b *Builder) *Group {
		return priorityQueues(b, b.Arcs)
	}})
	RegisterStrategy(Strategy{Name: "one-queue-with-vars", Make: func(b *Builder) *Group {
		return Queue(append(b.Vars(b.Variables()), b.Coarses(b.Propagators())...)...).ClearOut()
	}})
	RegisterStrategy(Strategy{Name: "two-queues-with-vars", Make: func(b *Builder) *Group {
		vars := Queue(b.Vars(b.Variables())...).Named("vars").ClearOut()
		coarses := Sort(b.Coarses(b.SortByPriority(b.Propagators()))...).Named("coarses").PickOne()
		return Sort(vars, coarses).ClearOut()
	}})
	RegisterStrategy(Strategy{Name: "increasing-degree-vars", Make: func(b *Builder) *Group {
		vs := slices.Clone(b.Variables())
		sort.SliceStable(vs, func(i, j int) bool { return vs[i].DomainSize() < vs[j].DomainSize() })
		vars := Sort(b.Vars(vs)...).Named("vars").ClearOut()
		coarses := Sort(b.Coarses(b.Propagators())...).Named("coarses").PickOne()
		return Sort(vars, coarses).ClearOut()
	}})
	RegisterStrategy(Strategy{Name: "one-queue-with-props", Make: func(b *Builder) *Group {
		ps := b.Propagators()
		return Queue(append(b.Props(ps), b.Coarses(ps)...)...).ClearOut()
	}})
	RegisterStrategy(Strategy{Name: "two-queues-with-props", Make: func(b *Builder) *Group {
		ps := b.Propagators()
		props := Queue(b.Props(ps)...).Named("props").ClearOut()
		coarses := Queue(b.Coarses(ps)...).Named("coarses").PickOne()
		return Sort(props, coarses).ClearOut()
	}})
	RegisterStrategy(Strategy{Name: "priority-queues-with-props", Make: func(b *Builder) *Group {
		return priorityQueues(b, b.Props)
	}})
	RegisterStrategy(Strategy{Name: "gecode", Make: func(b *Builder) *Group {
		var fine, coarse []*Group
		for _, bucket := range b.ByPriority(b.Propagators()) {
			if els := b.Props(bucket); len(els) > 0 {
				fine = append(fine, Queue(els...).PickOne())
			}
			coarse = append(coarse, Queue(b.Coarses(bucket)...).PickOne())
		}
		f := Sort(groups(fine)...).Named("fine").ClearOut()
		c := Sort(groups(coarse)...).Named("coarse").PickOne()
		return Sort(f, c).ClearOut()
	}})
}

// priorityQueues builds one PickOne queue of fine elements per priority,
// cheapest first, followed by a PickOne queue of coarse elements.
func priorityQueues(b *Builder, gen func([]Propagator) []Schedulable) *Group {
	var qs []*Group
	for _, bucket := range b.ByPriority(b.Propagators()) {
		if els := gen(bucket); len(els) > 0 {
			qs = append(qs, Queue(els...).Named(bucket[0].Base().Priority().String()).PickOne())
		}
	}
	qs = append(qs, Queue(b.Coarses(b.Propagators())...).Named("coarses").PickOne())
	return Sort(groups(qs)...).ClearOut()
}
