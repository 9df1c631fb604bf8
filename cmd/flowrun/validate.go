package main

import (
	"fmt"

	"github.com/aretw0/flowrun/internal/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph-file|graph-id>",
		Short: "Check a graph for consistency",
		Long:  `Crawls the graph from its start node and reports dangling edges, a missing start node, unknown step types and unreachable nodes.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.resolveGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			report := validator.ValidateGraph(g, a.engine.Registry())
			out := cmd.OutOrStdout()
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			if err := report.Err(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Graph %q is valid! ✅\n", g.ID)
			return nil
		},
	}
}
