package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanprop/internal/modelfile"
	"github.com/gitrdm/gokanprop/pkg/cp"
)

const metricsNamespace = "cpprop"

type propagateOptions struct {
	File          string
	Strategy      string
	MaxIterations int
	Stats         bool
	Metrics       bool
}

func newPropagateCommand(root *rootOptions) *cobra.Command {
	opts := &propagateOptions{}

	cmd := &cobra.Command{
		Use:   "propagate -f <model.yaml>",
		Short: "Propagate a model to its fixpoint and print the domains",
		Long: `Load a model, run every propagator to a fixpoint once and print each
variable's domain followed by the aggregate entailment of the constraints.

Exits with status 1 when propagation ends in a contradiction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropagate(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "model file (required)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "propagation strategy (overrides the model file)")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", 0, "iteration limit, 0 for none (overrides the model file)")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print solver statistics")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// loadModel reads the model file and applies command-line overrides to its
// solver settings.
func loadModel(cmd *cobra.Command, file, strategy string, maxIterations int) (*cp.Model, *cp.SolverConfig, error) {
	f, err := modelfile.Load(file)
	if err != nil {
		return nil, nil, err
	}
	m, err := f.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file, err)
	}
	cfg := f.Config()
	if strategy != "" {
		cfg.Strategy = strategy
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.MaxIterations = maxIterations
	}
	return m, cfg, nil
}

func newMetrics(enabled bool) (*cp.Metrics, *prometheus.Registry, error) {
	if !enabled {
		return nil, nil, nil
	}
	reg := prometheus.NewRegistry()
	mx, err := cp.NewMetrics(metricsNamespace, reg)
	if err != nil {
		return nil, nil, err
	}
	return mx, reg, nil
}

func runPropagate(cmd *cobra.Command, root *rootOptions, opts *propagateOptions) error {
	m, cfg, err := loadModel(cmd, opts.File, opts.Strategy, opts.MaxIterations)
	if err != nil {
		return err
	}
	mx, reg, err := newMetrics(opts.Metrics)
	if err != nil {
		return err
	}
	mon := cp.NewSolverMonitor()
	s, err := cp.NewSolver(m,
		cp.WithConfig(cfg),
		cp.WithLogger(root.log),
		cp.WithMonitor(mon),
		cp.WithMetrics(mx),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "model: %s\n", m.Name())
	fmt.Fprintf(w, "strategy: %s\n", s.Strategy())

	perr := s.Propagate(cmd.Context())
	if perr != nil && !cp.IsContradiction(perr) {
		return perr
	}
	if perr != nil {
		fmt.Fprintln(w, perr)
	} else {
		for _, v := range m.Vars() {
			fmt.Fprintln(w, v)
		}
		fmt.Fprintf(w, "satisfied: %s\n", m.IsSatisfied())
	}
	if opts.Stats {
		fmt.Fprintf(w, "stats: %s\n", s.Stats())
	}
	if reg != nil {
		if err := writeMetrics(w, reg); err != nil {
			return err
		}
	}
	if perr != nil {
		return errReported
	}
	return nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
