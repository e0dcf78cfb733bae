package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/davidbz/folio/internal/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(container *dig.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the model list and the last cost summary over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return container.Invoke(func(server *http.Server) error {
				ctx := cmd.Context()

				errCh := make(chan error, 1)
				go func() {
					errCh <- server.Start()
				}()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		},
	}
}
