package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/homebase/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var noTrigger bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the hourly assignment trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.deps)

			cleanupCtx, cancelCleanup := context.WithCancel(ctx)
			defer cancelCleanup()
			go srv.RateLimiter().RunCleanup(cleanupCtx, 5*time.Minute)

			if !noTrigger {
				runner := a.newRunner(srv.Services())
				runner.Start(ctx)
				defer runner.Stop()
			}

			httpServer := &http.Server{
				Addr:         ":" + a.cfg.Port,
				Handler:      srv.Router(),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("homebase listening", "addr", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&noTrigger, "no-trigger", false, "do not run the hourly assignment trigger")
	return cmd
}
