package cp

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SolverConfig configures propagation.
type SolverConfig struct {
	// Strategy names a registered propagation strategy.
	Strategy string
	// MaxIterations bounds the scheduler iterations of one Propagate call.
	// Zero means unlimited. Guards against propagators that never reach a
	// fixpoint.
	MaxIterations int
}

// DefaultSolverConfig returns the default configuration.
func DefaultSolverConfig() *SolverConfig {
	return &SolverConfig{
		Strategy:      DefaultStrategy,
		MaxIterations: 0,
	}
}

// SolverOption configures NewSolver.
type SolverOption func(*solverOptions)

type solverOptions struct {
	config   SolverConfig
	strategy *Strategy
	log      *zap.Logger
	monitor  *SolverMonitor
	metrics  *Metrics
}

// WithConfig replaces the whole configuration.
func WithConfig(c *SolverConfig) SolverOption {
	return func(o *solverOptions) {
		if c != nil {
			o.config = *c
		}
	}
}

// WithStrategy selects a registered strategy by name.
func WithStrategy(name string) SolverOption {
	return func(o *solverOptions) { o.config.Strategy = name }
}

// WithCustomStrategy uses s without registering it.
func WithCustomStrategy(s Strategy) SolverOption {
	return func(o *solverOptions) { o.strategy = &s }
}

// WithMaxIterations sets SolverConfig.MaxIterations.
func WithMaxIterations(n int) SolverOption {
	return func(o *solverOptions) { o.config.MaxIterations = n }
}

// WithLogger sets the logger. The solver adds its run id to every entry.
func WithLogger(l *zap.Logger) SolverOption {
	return func(o *solverOptions) { o.log = l }
}

// WithMonitor collects statistics into m.
func WithMonitor(m *SolverMonitor) SolverOption {
	return func(o *solverOptions) { o.monitor = m }
}

// WithMetrics exports counters through m.
func WithMetrics(m *Metrics) SolverOption {
	return func(o *solverOptions) { o.metrics = m }
}

// ErrModelAttached is returned when a second solver is created on a model.
var ErrModelAttached = errors.New("model already attached to a solver")

// Solver propagates the constraints of one model to a fixpoint. A model has
// at most one solver; Duplicate the model to propagate it elsewhere.
type Solver struct {
	id  uuid.UUID
	eng *engine
}

// NewSolver attaches a solver to m.
func NewSolver(m *Model, opts ...SolverOption) (*Solver, error) {
	if m.obs != nil {
		return nil, ErrModelAttached
	}
	o := solverOptions{config: *DefaultSolverConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	var strat Strategy
	if o.strategy != nil {
		strat = *o.strategy
	} else {
		s, err := LookupStrategy(o.config.Strategy)
		if err != nil {
			return nil, err
		}
		strat = s
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	id := uuid.New()
	e := &engine{
		model:         m,
		strategy:      strat,
		maxIterations: o.config.MaxIterations,
		log: o.log.With(
			zap.Stringer("run", id),
			zap.String("model", m.name),
		),
		monitor: o.monitor,
		metrics: o.metrics,
		dirty:   true,
	}
	m.obs = e
	return &Solver{id: id, eng: e}, nil
}

// ID returns the run identifier.
func (s *Solver) ID() uuid.UUID { return s.id }

// Model returns the model being propagated.
func (s *Solver) Model() *Model { return s.eng.model }

// Strategy returns the strategy name.
func (s *Solver) Strategy() string { return s.eng.strategy.Name }

// Stats returns the statistics of the attached monitor, if any.
func (s *Solver) Stats() SolverStats { return s.eng.monitor.Stats() }

// Propagate runs every pending propagation to a fixpoint. Newly posted
// propagators get their initial full propagation first.
//
// A *Contradiction (errors.Is(err, ErrContradiction)) means the current
// branch is infeasible: domains are left as they were when the failure was
// detected and the caller should Pop the model. ctx is checked between
// scheduler iterations.
func (s *Solver) Propagate(ctx context.Context) error {
	return s.eng.propagate(ctx)
}

// Close detaches the solver from its model.
func (s *Solver) Close() {
	if s.eng.model.obs == s.eng {
		s.eng.model.obs = nil
	}
}
