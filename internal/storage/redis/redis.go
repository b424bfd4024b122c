// Package redis implements storage.Store on top of Redis string keys.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/go-redis/redis/v8"

	"github.com/xenking/storefront/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Config controls the Redis backend.
type Config struct {
	// URL is a redis:// connection URL.
	URL string
	// DB overrides the database number from URL when non-zero.
	DB int
	// KeyPrefix is prepended to every key.
	KeyPrefix string
	// TTL expires idle client data. Zero keeps values forever.
	TTL time.Duration
}

// Store persists values as Redis strings.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis using cfg.
func New(cfg Config) (*Store, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return NewWithClient(goredis.NewClient(opts), cfg.KeyPrefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, keyPrefix string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: keyPrefix,
		ttl:    ttl,
	}
}

// Get returns the value under key or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "redis get %q", key)
	}
	return data, nil
}

// Set overwrites the value under key, refreshing its TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %q", key)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
