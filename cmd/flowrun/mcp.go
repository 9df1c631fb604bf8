package main

import (
	"os/signal"
	"syscall"

	"github.com/aretw0/flowrun/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server",
		Long:  `Exposes graphs and runs as MCP tools (list_graphs, get_graph, run_graph, get_run) over stdio, or over SSE with --sse.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.NewServer(a.engine, mcp.WithLogger(a.logger))

			sseAddr, _ := cmd.Flags().GetString("sse")
			if sseAddr == "" {
				return srv.ServeStdio()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ServeSSE(ctx, sseAddr)
		},
	}
	cmd.Flags().String("sse", "", "Serve over SSE on this address instead of stdio (e.g. :8081)")
	return cmd
}
