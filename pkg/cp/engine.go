package cp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// engine routes variable events to the schedulable elements of a strategy
// and drives them to a fixpoint. It is the model's observer while a Solver
// is attached.
type engine struct {
	model    *Model
	strategy Strategy
	top      *Group
	fine     [][]fineSlot
	coarse   []*coarseElement
	dirty    bool

	ctx           context.Context
	iterations    int
	maxIterations int

	// leaves waiting in some group, and the most seen this pass
	queued    int
	peakQueue int

	log     *zap.Logger
	monitor *SolverMonitor
	metrics *Metrics
}

// build assembles the strategy over the current propagators.
func (e *engine) build() error {
	b := newBuilder(e)
	top := e.strategy.Make(b)
	if top == nil {
		return fmt.Errorf("strategy %s: no root group", e.strategy.Name)
	}
	if top.parent != nil {
		return fmt.Errorf("strategy %s: root group has a parent", e.strategy.Name)
	}
	if err := b.validate(); err != nil {
		return fmt.Errorf("strategy %s: %w", e.strategy.Name, err)
	}
	rebuilt := e.top != nil
	e.top, e.fine, e.coarse = top, b.fine, b.coarse
	e.dirty = false
	e.queued = 0
	e.log.Info("propagation strategy assembled",
		zap.String("strategy", e.strategy.Name),
		zap.Int("propagators", len(e.model.props)),
		zap.Bool("rebuilt", rebuilt),
		zap.Stringer("root", top),
	)
	// Pending fine events were lost with the old structure: a coarse run
	// of every active propagator covers them.
	for id, p := range e.model.props {
		if p.Base().IsActive() {
			e.coarse[id].wake(EventCustomPropagation)
		}
	}
	return nil
}

func (e *engine) onVariableUpdate(v Variable, mask EventType, cause Cause) {
	e.monitor.RecordEvent()
	e.metrics.event(mask)
	if e.top == nil {
		return
	}
	for _, s := range v.base().subs {
		p := s.p
		b := p.Base()
		if Cause(p) == cause || !b.IsActive() || b.id >= len(e.coarse) {
			continue
		}
		cond := p.PropagationConditions(s.idx) & mask
		if cond == 0 {
			continue
		}
		if b.fine {
			slot := e.fine[b.id][s.idx]
			slot.el.wake(slot.slot, cond)
		} else {
			e.coarse[b.id].wake(EventCustomPropagation)
		}
	}
}

func (e *engine) forcePropagate(p Propagator, mask EventType) {
	if p == nil || e.top == nil {
		return
	}
	b := p.Base()
	if b.id < 0 || b.id >= len(e.coarse) || b.IsPassive() {
		return
	}
	if mask == 0 {
		mask = EventCustomPropagation
	}
	e.coarse[b.id].wake(mask)
}

func (e *engine) onPassive(p Propagator) {
	e.monitor.RecordPassivation()
	e.metrics.passivation()
	e.log.Debug("propagator passive", zap.Stringer("propagator", p))
}

func (e *engine) onPost(Propagator) { e.dirty = true }

// enqueue counts a leaf joining its group; dequeue a leaf leaving it.
func (e *engine) enqueue() {
	e.queued++
	e.peakQueue = max(e.peakQueue, e.queued)
}

func (e *engine) dequeue() { e.queued-- }

// step accounts for one scheduler iteration.
func (e *engine) step() error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	if e.maxIterations > 0 && e.iterations >= e.maxIterations {
		return fmt.Errorf("%w (%d)", ErrIterationLimit, e.maxIterations)
	}
	e.iterations++
	return nil
}

func (e *engine) runCoarse(p Propagator, mask EventType) error {
	b := p.Base()
	if b.IsPassive() {
		return nil
	}
	if err := e.step(); err != nil {
		return err
	}
	if b.State() == StateNew {
		b.setActive()
		mask |= EventFullPropagation
	}
	start := time.Now()
	err := p.Propagate(mask)
	e.monitor.RecordCoarse(time.Since(start))
	e.metrics.propagation(mask.Has(EventFullPropagation), false, time.Since(start))
	return err
}

func (e *engine) runFine(p Propagator, idx int, mask EventType) error {
	if !p.Base().IsActive() {
		return nil
	}
	if err := e.step(); err != nil {
		return err
	}
	start := time.Now()
	err := p.PropagateOn(idx, mask)
	e.monitor.RecordFine(time.Since(start))
	e.metrics.propagation(false, true, time.Since(start))
	return err
}

// propagate runs the scheduler until no element is pending. On error every
// pending element is dropped: the caller is expected to backtrack.
func (e *engine) propagate(ctx context.Context) error {
	if e.top == nil || e.dirty {
		if err := e.build(); err != nil {
			return err
		}
	}
	e.peakQueue = e.queued
	for id, p := range e.model.props {
		if p.Base().State() == StateNew {
			e.coarse[id].wake(EventFullPropagation)
		}
	}
	e.ctx = ctx
	e.iterations = 0
	defer func() { e.ctx = nil }()

	start := time.Now()
	for !e.top.empty() {
		if err := e.top.execute(); err != nil {
			e.top.flush()
			e.queued = 0
			e.fail(err)
			return err
		}
	}
	e.monitor.RecordFixpoint(e.iterations, e.model.trail.Peak(), e.peakQueue)
	e.metrics.fixpoint()
	e.log.Debug("fixpoint reached",
		zap.Int("iterations", e.iterations),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (e *engine) fail(err error) {
	var c *Contradiction
	if !errors.As(err, &c) {
		e.log.Debug("propagation interrupted", zap.Error(err), zap.Int("iterations", e.iterations))
		return
	}
	e.monitor.RecordContradiction()
	e.metrics.contradiction()
	fields := []zap.Field{zap.String("op", c.Op), zap.String("detail", c.Detail)}
	if c.Var != nil {
		fields = append(fields, zap.String("var", c.Var.Name()))
	}
	if c.Cause != nil {
		fields = append(fields, zap.Stringer("cause", c.Cause))
	}
	e.log.Debug("contradiction", fields...)
}
