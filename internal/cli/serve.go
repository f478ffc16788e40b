package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tansive/rostersync/internal/rostersync/server"
)

func newServeCmd(opts *options) *cobra.Command {
	var tenants []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory reference REST server",
		Long: `Run the in-memory reference REST server on the port from the [server] table of
the config. Data is lost when the server stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := server.NewRepository()
			for _, name := range tenants {
				if _, err := server.Seed(repo, name); err != nil {
					return fmt.Errorf("seeding tenant %q: %w", name, err)
				}
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			s, err := server.CreateNewServer(repo, server.Options{
				HandleCORS: opts.cfg.Server.HandleCORS,
				Gatherer:   registry,
			})
			if err != nil {
				return err
			}
			s.MountHandlers()

			srv := &http.Server{
				Addr:              ":" + opts.cfg.Server.Port,
				Handler:           s.Router,
				ReadHeaderTimeout: 5 * time.Second,
			}
			return runUntilSignal(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringSliceVar(&tenants, "seed", []string{"Demo"}, "Tenants to create with a sample roster")
	return cmd
}

// runUntilSignal serves srv until it fails or the process is interrupted.
func runUntilSignal(ctx context.Context, srv *http.Server) error {
	slog := log.With().Str("state", "serve").Logger()

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info().Str("addr", srv.Addr).Msg("server started")
		serverErrors <- srv.ListenAndServe()
	}()

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
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}

	// Give outstanding requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}
	slog.Info().Msg("server stopped")
	return nil
}
