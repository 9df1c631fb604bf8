package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowrun"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of flowrun",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowrun version %s\n", strings.TrimSpace(flowrun.Version))
		},
	}
}
