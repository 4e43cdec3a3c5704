package modules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/memohai/recallbot/internal/config"
	"github.com/memohai/recallbot/internal/logger"
	"github.com/memohai/recallbot/internal/metrics"
	"github.com/memohai/recallbot/internal/storage"
	"github.com/memohai/recallbot/internal/tally"
	"github.com/memohai/recallbot/internal/tracker"
)

// loadTimeout bounds connecting to the store and reading the snapshot.
const loadTimeout = 15 * time.Second

var InfraModule = fx.Module(
	"infra",
	fx.Provide(
		provideLogger,
		provideBackend,
		provideStore,
		tracker.New,
		provideMetrics,
	),
)

// ---------------------------------------------------------------------------
// infrastructure providers
// ---------------------------------------------------------------------------

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideBackend(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*storage.Backend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	backend, err := storage.Open(ctx, log, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			backend.Close()
			return nil
		},
	})
	return backend, nil
}

func provideStore(log *slog.Logger, backend *storage.Backend) (*tally.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	store := tally.New(backend.Persister, tally.WithLogger(log))
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load tally: %w", err)
	}
	log.Info("tally loaded",
		slog.Int("reasons", len(store.Stats())),
		slog.Int("total", store.TotalRecalls()),
	)
	return store, nil
}

func provideMetrics(tr *tracker.Tracker) *metrics.Metrics {
	return metrics.New(tr)
}
