// Package portfolio propagates one model under several strategies at once.
//
// Every strategy runs on its own duplicate of the model, so runs share no
// mutable state and can proceed in parallel. Since all strategies compute
// the same fixpoint, the report also tells whether the runs agreed.
package portfolio

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gitrdm/gokanprop/internal/parallel"
	"github.com/gitrdm/gokanprop/pkg/cp"
)

// Result is the outcome of one strategy.
type Result struct {
	Strategy string
	RunID    uuid.UUID
	// Failed is set when propagation ended in a contradiction; Domains then
	// holds the domains at the point of failure.
	Failed    bool
	Failure   string
	Domains   []string
	Satisfied cp.Entailment
	Stats     cp.SolverStats
	Elapsed   time.Duration
}

// Report gathers the results in the order the strategies were given.
type Report struct {
	Results []Result
	// Confluent is true when every run failed, or every run succeeded with
	// identical domains.
	Confluent bool
}

// Options configures Run.
type Options struct {
	// Workers bounds the number of concurrent runs; 0 means one per CPU.
	Workers int
	// MaxIterations is handed to every solver.
	MaxIterations int
	Logger        *zap.Logger
	Metrics       *cp.Metrics
}

// Run propagates a duplicate of m under each strategy. An empty list means
// every registered strategy. m itself is left untouched.
//
// A contradiction is a result, not an error; any other failure (unknown
// strategy, iteration limit, cancellation) aborts the whole run.
func Run(ctx context.Context, m *cp.Model, strategies []string, opts Options) (*Report, error) {
	if len(strategies) == 0 {
		strategies = cp.StrategyNames()
	}
	for _, s := range strategies {
		if _, err := cp.LookupStrategy(s); err != nil {
			return nil, err
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Duplicate on the calling goroutine: the source is never shared.
	models := make([]*cp.Model, len(strategies))
	for i := range strategies {
		dup, err := m.Duplicate()
		if err != nil {
			return nil, fmt.Errorf("portfolio: %w", err)
		}
		models[i] = dup
	}

	results, err := parallel.Map(ctx, opts.Workers, strategies, func(ctx context.Context, i int, name string) (Result, error) {
		return runOne(ctx, models[i], name, opts, log)
	})
	if err != nil {
		return nil, err
	}
	r := &Report{Results: results, Confluent: confluent(results)}
	log.Info("portfolio finished",
		zap.Int("strategies", len(results)),
		zap.Bool("confluent", r.Confluent),
	)
	return r, nil
}

func runOne(ctx context.Context, m *cp.Model, name string, opts Options, log *zap.Logger) (Result, error) {
	mon := cp.NewSolverMonitor()
	s, err := cp.NewSolver(m,
		cp.WithStrategy(name),
		cp.WithMaxIterations(opts.MaxIterations),
		cp.WithLogger(log),
		cp.WithMonitor(mon),
		cp.WithMetrics(opts.Metrics),
	)
	if err != nil {
		return Result{}, err
	}
	defer s.Close()

	res := Result{Strategy: name, RunID: s.ID()}
	start := time.Now()
	err = s.Propagate(ctx)
	res.Elapsed = time.Since(start)
	switch {
	case cp.IsContradiction(err):
		res.Failed = true
		res.Failure = err.Error()
	case err != nil:
		return Result{}, fmt.Errorf("strategy %s: %w", name, err)
	}
	for _, v := range m.Vars() {
		res.Domains = append(res.Domains, v.String())
	}
	res.Satisfied = m.IsSatisfied()
	res.Stats = s.Stats()
	log.Debug("portfolio run done",
		zap.String("strategy", name),
		zap.Stringer("run", res.RunID),
		zap.Bool("failed", res.Failed),
		zap.Int("iterations", res.Stats.Iterations),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func confluent(rs []Result) bool {
	if len(rs) == 0 {
		return true
	}
	for _, r := range rs[1:] {
		if r.Failed != rs[0].Failed {
			return false
		}
		if !r.Failed && !slices.Equal(r.Domains, rs[0].Domains) {
			return false
		}
	}
	return true
}
