package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crawl API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			defer closeApp(a)

			srv, err := api.NewServer(a.Pipeline, cfg,
				api.WithLogger(logger.Named("api")),
				api.WithRegistry(a.Registry),
			)
			if err != nil {
				return fmt.Errorf("build api server: %w", err)
			}
			return serve(cmd.Context(), &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}, logger)
		},
	}
	cmd.Flags().Int("port", 0, "listen port")
	cmd.PreRunE = opts.binder(map[string]string{"port": "server.port"})
	return cmd
}

// serve runs srv until ctx is canceled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
