package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"

	"github.com/tansive/rostersync/internal/common/httpclient"
	"github.com/tansive/rostersync/internal/rostersync/actionlog"
	"github.com/tansive/rostersync/internal/rostersync/modules"
	"github.com/tansive/rostersync/internal/rostersync/server"
	"github.com/tansive/rostersync/internal/rostersync/store"
)

// app is the client side of one command run.
type app struct {
	client   *httpclient.HTTPClient
	store    *store.Store
	modules  *modules.Modules
	registry *prometheus.Registry
	recorder *actionlog.Writer
}

func newApp(opts *options) (*app, error) {
	cfg := opts.cfg
	client := httpclient.NewClient(cfg, httpclient.ClientOptions{
		Timeout:       cfg.GetRequestTimeout(),
		RetryAttempts: cfg.RetryAttempts,
	})

	registry := prometheus.NewRegistry()
	storeOpts := []store.Option{store.WithMetrics(store.NewMetrics(registry))}

	var recorder *actionlog.Writer
	if cfg.ActionLog.Path != "" {
		var err error
		recorder, err = actionlog.NewWriter(cfg.ActionLog.Path, cfg.ActionLog.FlushInterval)
		if err != nil {
			return nil, fmt.Errorf("unable to open action log: %w", err)
		}
		storeOpts = append(storeOpts, store.WithRecorder(recorder))
	}

	st := store.New(store.State{
		TenantData: store.TenantData{CurrentTenantID: cfg.TenantID},
	}, storeOpts...)

	return &app{
		client:   client,
		store:    st,
		modules:  modules.New(client, st),
		registry: registry,
		recorder: recorder,
	}, nil
}

// Close stops the store and flushes the action log.
func (a *app) Close() error {
	a.store.Close()
	if a.recorder != nil {
		return a.recorder.Close()
	}
	return nil
}

// serverVersion returns the API version announced by the server and whether this
// client supports it.
func (a *app) serverVersion(ctx context.Context) (string, bool, error) {
	body, err := a.client.Get(ctx, "/version")
	if err != nil {
		return "", false, err
	}
	v := gjson.GetBytes(body, "apiVersion").String()
	return v, server.IsVersionCompatible(v), nil
}
