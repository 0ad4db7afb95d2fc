package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/bestiary/internal/api"
	"github.com/dgallion1/bestiary/internal/config"
	"github.com/dgallion1/bestiary/internal/observe"
	"github.com/dgallion1/bestiary/internal/pathstore"
	"github.com/dgallion1/bestiary/internal/pipeline"
)

var version = "0.1.0"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	parser, knownBad, err := pipeline.Resources{
		ClassTable: cfg.ClassTablePath,
		Quirks:     cfg.QuirksPath,
		KnownBad:   cfg.KnownBadPath,
	}.Load()
	if err != nil {
		log.Error("failed to load parser resources", "error", err)
		os.Exit(1)
	}

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		log.Error("failed to init metrics provider", "error", err)
		os.Exit(1)
	}

	metrics, err := pipeline.NewMetrics(provider.MeterProvider())
	if err != nil {
		log.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	ex := pipeline.NewExtractor(pipeline.ExtractorConfig{
		Parser:        parser,
		KnownBad:      knownBad,
		IncludeLegacy: cfg.IncludeLegacy,
		Metrics:       metrics,
		Stats:         pipeline.NewParseStats(cfg.StatsWindow),
	}, log)

	// The sink and record routes stay nil interfaces unless a pathstore is set.
	var (
		sink    pipeline.Sink
		records api.RecordStore
		ps      *pathstore.Client
	)
	if cfg.SinkEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		sink, records = ps, ps
	}

	orch := pipeline.NewOrchestrator(cfg, ex, sink, metrics, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, records, provider.Handler(), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics provider shutdown", "error", err)
		}

		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting bestiary",
		"port", cfg.Port,
		"sink", cfg.SinkEnabled(),
		"include_legacy", cfg.IncludeLegacy,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
