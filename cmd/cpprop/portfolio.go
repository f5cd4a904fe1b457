package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanprop/pkg/portfolio"
)

type portfolioOptions struct {
	File          string
	Strategies    []string
	Workers       int
	MaxIterations int
	Stats         bool
	Metrics       bool
}

func newPortfolioCommand(root *rootOptions) *cobra.Command {
	opts := &portfolioOptions{}

	cmd := &cobra.Command{
		Use:   "portfolio -f <model.yaml>",
		Short: "Propagate a model under several strategies concurrently",
		Long: `Run the same model under several propagation strategies, each on its own
copy, and report whether they all reached the same fixpoint.

Exits with status 1 when the strategies disagree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPortfolio(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "model file (required)")
	cmd.Flags().StringSliceVar(&opts.Strategies, "strategies", nil, "strategies to run (default all)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent runs, 0 for one per CPU")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", 0, "iteration limit, 0 for none (overrides the model file)")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print per-strategy statistics")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runPortfolio(cmd *cobra.Command, root *rootOptions, opts *portfolioOptions) error {
	m, cfg, err := loadModel(cmd, opts.File, "", opts.MaxIterations)
	if err != nil {
		return err
	}
	mx, reg, err := newMetrics(opts.Metrics)
	if err != nil {
		return err
	}
	rep, err := portfolio.Run(cmd.Context(), m, opts.Strategies, portfolio.Options{
		Workers:       opts.Workers,
		MaxIterations: cfg.MaxIterations,
		Logger:        root.log,
		Metrics:       mx,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "model: %s\n", m.Name())
	for _, r := range rep.Results {
		outcome := "fixpoint"
		if r.Failed {
			outcome = "contradiction"
		}
		if opts.Stats {
			fmt.Fprintf(w, "%-28s %-13s %s\n", r.Strategy, outcome, r.Stats)
		} else {
			fmt.Fprintf(w, "%-28s %s\n", r.Strategy, outcome)
		}
	}
	fmt.Fprintf(w, "confluent: %t\n", rep.Confluent)
	if rep.Confluent && len(rep.Results) > 0 {
		first := rep.Results[0]
		if first.Failed {
			fmt.Fprintln(w, first.Failure)
		} else {
			for _, d := range first.Domains {
				fmt.Fprintln(w, d)
			}
			fmt.Fprintf(w, "satisfied: %s\n", first.Satisfied)
		}
	}
	if reg != nil {
		if err := writeMetrics(w, reg); err != nil {
			return err
		}
	}
	if !rep.Confluent {
		return errReported
	}
	return nil
}
