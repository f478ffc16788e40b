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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tansive/rostersync/internal/common/eventbus"
	"github.com/tansive/rostersync/internal/rostersync/store"
)

type syncOptions struct {
	interval    time.Duration
	metricsAddr string
	once        bool
}

func newSyncCmd(opts *options) *cobra.Command {
	so := &syncOptions{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Keep a local copy of the tenant in sync with the server",
		Long: `Reload the tenant list and every collection of the tenant, then again on every
interval until interrupted. Each applied change is logged and, when action_log.path
is set, appended to the action log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if so.interval <= 0 && !so.once {
				return fmt.Errorf("--interval must be positive, got %s", so.interval)
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			changes, unsubscribe := a.store.Subscribe("*", 64)
			defer unsubscribe()
			go logChanges(changes)

			if so.metricsAddr != "" {
				r := chi.NewRouter()
				r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
				srv := &http.Server{
					Addr:              so.metricsAddr,
					Handler:           r,
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("metrics server failed")
					}
				}()
				defer srv.Close()
			}

			return syncLoop(ctx, so, func(ctx context.Context) error {
				return a.modules.RefreshAll(ctx)
			})
		},
	}
	cmd.Flags().DurationVar(&so.interval, "interval", 30*time.Second, "Time between two reloads")
	cmd.Flags().StringVar(&so.metricsAddr, "metrics-addr", "", "Address to serve /metrics on, e.g. :9090")
	cmd.Flags().BoolVar(&so.once, "once", false, "Reload once and exit")
	return cmd
}

// syncLoop runs refresh right away and then on every tick. With once set, the
// first failure is returned; otherwise failures are logged and the loop goes on.
func syncLoop(ctx context.Context, so *syncOptions, refresh func(context.Context) error) error {
	if err := refresh(ctx); err != nil {
		if so.once {
			return err
		}
		log.Warn().Err(err).Msg("sync failed")
	}
	if so.once {
		return nil
	}

	ticker := time.NewTicker(so.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("sync failed")
			}
		}
	}
}

func logChanges(events <-chan eventbus.Event) {
	for ev := range events {
		change, ok := ev.Data.(store.Change)
		if !ok {
			continue
		}
		log.Info().
			Uint64("seq", change.Seq).
			Str("id", change.ID.String()).
			Str("action", change.Action.Type()).
			Int("tenant", change.State.TenantData.CurrentTenantID).
			Msg("applied")
	}
}
