package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/storage"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
)

// OpenStorage connects the configured backend. The returned func releases
// backend resources.
func OpenStorage(ctx context.Context, lg *zap.Logger, cfg StorageConfig) (storage.Store, func(), error) {
	var (
		store   storage.Store
		release = func() {}
	)
	switch cfg.Backend {
	case BackendMemory:
		store = memory.New()
	case BackendRedis:
		s, err := redis.New(redis.Config{
			URL:       cfg.Redis.URL,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "create redis store")
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		store = s
		release = func() { _ = s.Close() }
	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		store = postgres.NewStore(pool)
		release = pool.Close
	default:
		return nil, nil, errors.Errorf("unknown storage backend %q", cfg.Backend)
	}

	lg.Info("Storage ready",
		zap.String("backend", cfg.Backend),
		zap.Int("compress_threshold", cfg.CompressThreshold),
	)
	return storage.Compressed(store, cfg.CompressThreshold), release, nil
}
