// Package storage opens the tally persistence backend selected by config.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/memohai/recallbot/internal/config"
	"github.com/memohai/recallbot/internal/db"
	"github.com/memohai/recallbot/internal/tally"
)

// Backend is an opened persister plus the resources it holds.
type Backend struct {
	Driver    string
	Persister tally.Persister
	close     func()
}

// Close releases connections held by the backend.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// Open connects the configured store driver. Network backends are pinged
// before returning.
func Open(ctx context.Context, log *slog.Logger, cfg config.Config) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "storage"), slog.String("driver", cfg.Store.Driver))

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, counts are lost on restart")
		return &Backend{Driver: cfg.Store.Driver, Persister: tally.NewMemoryPersister(tally.Snapshot{})}, nil

	case config.StoreDriverFile:
		p := tally.NewFilePersister(cfg.Store.Path)
		log.Info("using file store", slog.String("path", p.Path()))
		return &Backend{Driver: cfg.Store.Driver, Persister: p}, nil

	case config.StoreDriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("using redis store", slog.String("addr", cfg.Redis.Addr), slog.String("prefix", cfg.Redis.Prefix))
		return &Backend{
			Driver:    cfg.Store.Driver,
			Persister: tally.NewRedisPersister(rdb, cfg.Redis.Prefix),
			close: func() {
				if err := rdb.Close(); err != nil {
					log.Warn("close redis failed", slog.Any("error", err))
				}
			},
		}, nil

	case config.StoreDriverPostgres:
		pool, err := db.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		log.Info("using postgres store", slog.String("host", cfg.Postgres.Host), slog.String("database", cfg.Postgres.Database))
		return &Backend{
			Driver:    cfg.Store.Driver,
			Persister: tally.NewPostgresPersister(pool),
			close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
