package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/stagegraph"
)

func newStagesCmd() *cobra.Command {
	var graphPath string
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Print the stage graph",
		Long:  `Loads the stage graph (the built-in one unless --graph is given) and prints every stage with its allowed next stages.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := stagegraph.LoadFile(graphPath)
			if err != nil {
				return err
			}
			printGraph(cmd, g)
			return nil
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "stage graph YAML file")
	return cmd
}

func printGraph(cmd *cobra.Command, g *stagegraph.Graph) {
	out := cmd.OutOrStdout()
	for _, s := range g.Stages() {
		var marks []string
		switch s {
		case g.Initial():
			marks = append(marks, "initial")
		case g.Rejected():
			marks = append(marks, "rejected")
		case g.Accepted():
			marks = append(marks, "accepted")
		}
		if g.IsTerminal(s) {
			marks = append(marks, "terminal")
		}
		label := string(s)
		if len(marks) > 0 {
			label += " (" + strings.Join(marks, ", ") + ")"
		}
		fmt.Fprintf(out, "%-32s -> %s\n", label, joinStages(g.AllowedNext(s)))
	}
}

func joinStages(stages []models.Stage) string {
	if len(stages) == 0 {
		return "-"
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
