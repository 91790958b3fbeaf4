// Package app builds the long-lived services behind the CLI and the HTTP
// server from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkrank/internal/clock/system"
	"github.com/JakeFAU/linkrank/internal/config"
	"github.com/JakeFAU/linkrank/internal/corpus"
	"github.com/JakeFAU/linkrank/internal/crawler"
	"github.com/JakeFAU/linkrank/internal/id/uuid"
	"github.com/JakeFAU/linkrank/internal/pagesource/html"
	"github.com/JakeFAU/linkrank/internal/pagesource/memory"
	"github.com/JakeFAU/linkrank/internal/pagesource/redis"
	"github.com/JakeFAU/linkrank/internal/policy/ratelimit"
	"github.com/JakeFAU/linkrank/internal/progress"
	"github.com/JakeFAU/linkrank/internal/progress/sinks"
	"github.com/JakeFAU/linkrank/internal/storage"
	storagememory "github.com/JakeFAU/linkrank/internal/storage/memory"
	"github.com/JakeFAU/linkrank/internal/storage/postgres"
)

// App holds the services shared by every crawl in the process.
type App struct {
	Config   config.Config
	Pipeline *Pipeline
	Registry *prometheus.Registry
	Results  storage.ResultStore

	logger  *zap.Logger
	hub     *progress.Hub
	closers []func()
}

// New builds the page source, result store, progress hub and pipeline
// described by cfg. It fails fast if any of them cannot be initialised.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	src, err := a.openSource(ctx, cfg.Source)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	src = ratelimit.Wrap(src, ratelimit.Config{RPS: cfg.Source.RateLimit, Burst: cfg.Source.RateBurst}, logger.Named("ratelimit"))
	results, err := a.openResults(ctx, cfg.Storage)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Results = results

	var emitter progress.Emitter = progress.Nop{}
	if cfg.Progress.Enabled {
		promSink, err := sinks.NewPrometheusSink(a.Registry)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("init progress metrics: %w", err)
		}
		progressLogger := logger.Named("progress")
		a.hub = progress.NewHub(progress.Config{
			BufferSize:     cfg.Progress.BufferSize,
			MaxBatchEvents: cfg.Progress.MaxBatchEvents,
			MaxBatchWait:   cfg.Progress.MaxBatchWait,
			Logger:         progressLogger,
		}, sinks.NewLogSink(progressLogger), promSink)
		emitter = a.hub
	}

	a.Pipeline, err = NewPipeline(cfg, Deps{
		Source:  src,
		Results: results,
		IDs:     uuid.New(),
		Clock:   system.New(),
		Emitter: emitter,
		Logger:  logger,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	logger.Info("application services initialized",
		zap.String("source", cfg.Source.Kind),
		zap.String("storage", cfg.Storage.Kind),
		zap.Bool("progress", cfg.Progress.Enabled),
	)
	return a, nil
}

func (a *App) openSource(ctx context.Context, cfg config.SourceConfig) (crawler.PageSource, error) {
	switch cfg.Kind {
	case config.SourceCorpus:
		return memory.New(corpus.Links(cfg.CorpusPages, corpus.DefaultNamer)), nil
	case config.SourceFile:
		src, err := memory.LoadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("open file source: %w", err)
		}
		return src, nil
	case config.SourceHTML:
		src, err := html.NewDirSource(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open html source: %w", err)
		}
		return src, nil
	case config.SourceRedis:
		client, err := redis.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open redis source: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("close redis client", zap.Error(err))
			}
		})
		return redis.New(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

func (a *App) openResults(ctx context.Context, cfg config.StorageConfig) (storage.ResultStore, error) {
	switch cfg.Kind {
	case config.StorageMemory:
		return storagememory.NewResultStore(), nil
	case config.StoragePostgres:
		store, err := postgres.NewResultStore(ctx, postgres.Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, fmt.Errorf("open result store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("open result store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}

// Close flushes pending progress events and releases connections.
func (a *App) Close(ctx context.Context) {
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("close progress hub", zap.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
