package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("failure reported")

type rootOptions struct {
	LogLevel string
	Dev      bool

	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cpprop",
		Short: "Constraint propagation over int, set and graph domains",
		Long: `cpprop builds a model from a YAML description and runs its
propagators to a fixpoint under a configurable scheduling strategy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts.LogLevel, opts.Dev)
			if err != nil {
				return err
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&opts.Dev, "dev", false, "human-readable development logs")

	cmd.AddCommand(newPropagateCommand(opts))
	cmd.AddCommand(newPortfolioCommand(opts))
	cmd.AddCommand(newStrategiesCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// newLogger builds a zap logger writing to stderr.
func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
