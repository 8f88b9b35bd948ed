package main

import (
	"github.com/spf13/cobra"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
}

// newRootCmd creates the top-level recgo command with all subcommands.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "recgo",
		Short: "Intent-driven game recommendations over precomputed embeddings",
		Long: "recgo turns a structured intent (similar games, vibe phrases or both)\n" +
			"into a ranked, diversified list of games.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"YAML config file (default $RECGO_CONFIG, then ./recgo.yaml)")

	cmd.AddCommand(
		newServeCmd(flags),
		newRecommendCmd(flags),
		newInspectCmd(flags),
	)
	return cmd
}
