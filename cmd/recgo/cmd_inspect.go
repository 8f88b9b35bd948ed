package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/artifact"
	"github.com/hupe1980/recgo/index"
)

type inspectReport struct {
	Artifacts artifact.Summary `json:"artifacts"`
	Index     index.Stats      `json:"index"`
}

// newInspectCmd creates the "recgo inspect" subcommand.
func newInspectCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load the artifacts, build the index and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rec, err := openRecommender(cmd.Context(), a, recgo.NoopMetricsCollector{}, nil)
			if err != nil {
				return err
			}
			stats, err := rec.IndexStats()
			if err != nil {
				return err
			}

			report := inspectReport{Artifacts: rec.Context().Summarize(), Index: stats}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "artifacts: %s\n", report.Artifacts)
			fmt.Fprintf(out, "index:     %s\n", report.Index)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
