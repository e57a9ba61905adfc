package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ArticleClassifier/internal/app"
	"ArticleClassifier/internal/infrastructure/scheduler"
	"ArticleClassifier/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job API",
	Long: `Serve the HTTP job API. Every POST to /api/jobs/<kind> starts a
background run whose status and log are available at /api/jobs/<id>.
Prometheus metrics are exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to the configured server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.Application) error {
		cfg := a.Config()
		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}

		jobs := scheduler.NewDispatcher(cfg.Logging.Level, os.Stderr, a.Metrics())
		handler := server.NewHandler(a, jobs, a.Metrics().Handler(), a.Logger().With("component", "http"))
		srv := &http.Server{
			Addr:              addr,
			Handler:           server.NewRouter(handler, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.Logger().Info("listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serve %s: %w", addr, err)
			}
			return nil
		case <-ctx.Done():
		}

		a.Logger().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		if err := jobs.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("stop jobs: %w", err)
		}
		return nil
	})
}
