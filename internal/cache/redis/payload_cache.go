package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/observability"
)

// Config holds Redis connection settings. An empty Addr disables the cache.
type Config struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB"       envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL"      envDefault:"24h"`
}

// Enabled reports whether a Redis address is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Addr != ""
}

// NewClient opens a client and verifies the connection.
func NewClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// PayloadCache implements domain.PayloadCache on Redis hashes.
type PayloadCache struct {
	client *redis.Client
}

// NewPayloadCache creates a new Redis payload cache.
func NewPayloadCache(client *redis.Client) *PayloadCache {
	return &PayloadCache{client: client}
}

// Get returns the payload stored under key, or domain.ErrCacheMiss.
func (p *PayloadCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := p.client.HGet(ctx, key, "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get failed: %w", err)
	}

	return data, nil
}

// Set stores data under key. A non-positive ttl keeps the entry forever.
func (p *PayloadCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	logger := observability.FromContext(ctx)
	logger.Debug("storing payload",
		observability.String("key", key),
		observability.Int("data_size", len(data)))

	pipe := p.client.Pipeline()

	pipe.HSet(ctx, key,
		"data", string(data),
		"stored_at", time.Now().Unix(),
	)

	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		logger.Error("payload store failed", observability.Error(execErr))
		return fmt.Errorf("failed to store payload: %w", execErr)
	}

	return nil
}
