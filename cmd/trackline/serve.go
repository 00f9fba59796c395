package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/trackline/trackline/internal/api"
	"github.com/trackline/trackline/internal/config"
	"github.com/trackline/trackline/internal/connectivity"
	"github.com/trackline/trackline/internal/events"
	"github.com/trackline/trackline/internal/localstore"
	"github.com/trackline/trackline/internal/pending"
	"github.com/trackline/trackline/internal/platform/logger"
	"github.com/trackline/trackline/internal/remotestore"
	syncsvc "github.com/trackline/trackline/internal/sync"
	"github.com/trackline/trackline/internal/tracker"
)

func newServeCmd() *cobra.Command {
	var portOverride int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tracking service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(portOverride)
		},
	}
	cmd.Flags().IntVarP(&portOverride, "port", "p", 0, "Override TRACKLINE_HTTP_PORT")
	return cmd
}

func runServe(portOverride int) error {
	log := logger.New("trackline")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if portOverride != 0 {
		cfg.HTTPPort = portOverride
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("http_port", cfg.HTTPPort).
		Bool("remote_configured", cfg.RemoteConfigured()).
		Msg("trackline starting")

	store, err := localstore.Open(cfg.StorePath(), log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StorePath()).Msg("local store unavailable")
	}
	defer func() { _ = store.Close() }()

	var remote remotestore.API
	if cfg.RemoteConfigured() {
		remote = remotestore.New(cfg.RemoteURL, cfg.RemoteAPIKey, log)
	} else {
		log.Warn().Msg("no remote configured, running local-only")
	}

	bus := events.NewBus(64)
	queue := pending.New(log)
	tr := tracker.New(store, remote, queue, bus, log)
	orch := syncsvc.New(tr, store, remote, queue, bus, cfg.SyncInterval, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A marker left behind by an unclean offline shutdown triggers one
	// reconciliation pass once the remote answers probes again.
	if store.WasOffline() {
		log.Info().Msg("previous session ended offline")
		orch.SetOnline(false)
	}

	go orch.Run(ctx)
	if remote != nil {
		watcher := connectivity.New(remote, cfg.ProbeInterval, orch.SetOnline, log)
		go watcher.Run(ctx)
	}

	go logEvents(ctx, bus, log)

	router := api.NewRouter(tr, orch, cfg.RemoteConfigured())
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	tr.FlushLocal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
	return nil
}

// logEvents drains the bus so change notifications appear in the service
// log even with no UI subscriber attached.
func logEvents(ctx context.Context, bus *events.Bus, log zerolog.Logger) {
	ch := bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			log.Debug().Str("kind", string(evt.Kind)).Str("detail", evt.Detail).Msg("event")
		}
	}
}
