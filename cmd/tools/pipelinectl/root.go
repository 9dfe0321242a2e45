package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recruiting-pipeline/internal/common/config"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pipelinectl",
		Short:         "Operator tooling for the recruiting pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (defaults to configs/config.yaml)")

	root.AddCommand(newStagesCmd(), newRegistryCmd(), newEventsCmd(), newTimelineCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}
