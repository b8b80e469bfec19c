package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"athena/internal/adapters/config"
	"athena/pkg/logger"
)

// Client wraps the Redis client for report caching.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewClient creates a new Redis client. Reports cache for ttl; zero
// means 6 hours, matching the refresh cadence of the slowest provider.
func NewClient(cfg config.RedisConfig, ttl time.Duration) (*Client, error) {
	if ttl == 0 {
		ttl = 6 * time.Hour
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &Client{
		rdb: rdb,
		ttl: ttl,
		log: logger.Get().With("component", "redis"),
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw returns the underlying Redis client.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// Health checks Redis connectivity.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns a cached report. Cache errors read as misses.
func (c *Client) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.rdb.Get(ctx, "report:"+key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Warnw("cache read failed", "key", key, "error", err)
		return "", false
	}
	return value, true
}

// Set stores a report. Write failures are logged and ignored; the
// cache is an optimization, not a dependency.
func (c *Client) Set(ctx context.Context, key, value string) {
	if err := c.rdb.Set(ctx, "report:"+key, value, c.ttl).Err(); err != nil {
		c.log.Warnw("cache write failed", "key", key, "error", err)
	}
}
