package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the drip monitor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			tokens, err := rt.tokenStore().Load()
			if err != nil {
				return err
			}
			if tokens == nil {
				_, _ = fmt.Fprintln(rt.Writer(), "Not authenticated; run 'dripctl auth login' first.")
			}
			_, _ = fmt.Fprintf(rt.Writer(), "dripctl is running (interval: %ds, threshold: %.2f)\n",
				rt.cfg.Monitor.Interval, rt.cfg.Monitor.Threshold)
			return nil
		},
	}
}
