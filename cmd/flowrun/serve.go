package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/flowrun/internal/presentation/tui"
	httpAdapter "github.com/aretw0/flowrun/pkg/adapters/http"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Starts the engine with the built-in code review workflow and exposes the graph API over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []httpAdapter.Option{httpAdapter.WithLogger(a.logger)}
			if a.metrics != nil {
				opts = append(opts, httpAdapter.WithMetrics(a.metrics))
			}
			handler, err := httpAdapter.NewHandler(a.engine, opts...)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)

			go func() {
				if tui.IsTerminal(os.Stderr) {
					tui.PrintBanner(cmd.ErrOrStderr())
				}
				a.logger.Info("starting flowrun server", "addr", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			// Channel to listen for interrupt or terminate signals.
			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-shutdown:
				a.logger.Info("shutdown started", "signal", sig.String())

				// Give outstanding requests a deadline for completion.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					a.logger.Error("graceful shutdown did not complete", "err", err)
					if err := srv.Close(); err != nil {
						return fmt.Errorf("error killing server: %w", err)
					}
				}
				a.logger.Info("flowrun server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().String("addr", ":8080", "Address to listen on")
	return cmd
}
