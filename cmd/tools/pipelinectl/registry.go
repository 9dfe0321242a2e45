package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recruiting-pipeline/internal/common/validation"
	"recruiting-pipeline/pkg/registry"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}
	cmd.AddCommand(newRegistryValidateCmd())
	return cmd
}

func newRegistryValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the activity registry",
		Long: `Parses the registry (the embedded one unless --path is given), checks task types,
timeouts and input schemas, and compiles every input schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			if path != "" {
				var err error
				if reg, err = registry.LoadRegistry(path); err != nil {
					return fmt.Errorf("registry validation failed: %w", err)
				}
			}
			if _, err := validation.NewValidator(reg); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "registry JSON file")
	return cmd
}
