package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dripware/dripctl/pkg/output"
	"github.com/dripware/dripctl/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show dripctl version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			writer := cmd.OutOrStdout()
			if rt, err := getRuntime(cmd); err == nil {
				writer = rt.Writer()
			}

			switch outputFormat {
			case "json":
				return output.WriteObject(writer, output.FormatJSON, info)
			case "yaml":
				return output.WriteObject(writer, output.FormatYAML, info)
			default:
				_, _ = fmt.Fprintf(writer, "dripctl %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildDate)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, yaml")
	return cmd
}
