package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flowrun",
		Short:         "flowrun executes graph workflows over a shared state",
		Long:          `flowrun runs workflows defined as graphs of registered steps, with conditional edges and loops bounded by a step budget.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("graphs", "", "Directory of graph files to register at startup")
	rootCmd.PersistentFlags().String("steps", "", "YAML or JSON file of external command steps")
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for durable graph and run stores")
	rootCmd.PersistentFlags().Bool("strict", false, "Reject graphs with dangling edges at registration")

	rootCmd.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newValidateCmd(),
		newGraphCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
