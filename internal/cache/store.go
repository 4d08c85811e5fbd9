package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is a minimal key-value store with expiring entries. Get returns
// (nil, nil) on a miss so callers treat absence and expiry identically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config selects the backing store. An empty RedisURL selects the no-op
// store, which never persists anything.
type Config struct {
	RedisURL string
}

// New builds the process-wide store. Call it once at startup and pass the
// result into every request-handling path; selection is never re-evaluated
// per request.
func New(cfg Config, logger *zap.Logger) (Store, error) {
	if cfg.RedisURL == "" {
		logger.Info("no cache backend configured, thread history will not be preserved")
		return &noopStore{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("using redis cache backend")
	return &redisStore{client: redis.NewClient(opts)}, nil
}

// redisStore persists values as JSON blobs with a per-key TTL.
type redisStore struct {
	client *redis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// noopStore always misses on read and discards writes. Used when no
// persistence is configured.
type noopStore struct{}

func (*noopStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (*noopStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
