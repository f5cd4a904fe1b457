package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gokanprop/pkg/cp"
)

func newStrategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the propagation strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range cp.StrategyNames() {
				if name == cp.DefaultStrategy {
					fmt.Fprintf(w, "%s (default)\n", name)
					continue
				}
				fmt.Fprintln(w, name)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := cp.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "cpprop %s (%s, %d strategies)\n", info.Version, info.GoVersion, len(info.Strategies))
			return nil
		},
	}
}
