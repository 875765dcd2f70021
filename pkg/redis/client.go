package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const driversKey = "drivers:all"

// ErrMiss is returned when a cache key is absent.
var ErrMiss = errors.New("redis: cache miss")

// Client wraps the Redis connection.
type Client struct {
	rdb *goredis.Client
}

// NewClient connects to Redis with retry.
func NewClient(ctx context.Context, addr string, log *slog.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	for i := 0; i < 20; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("connected to redis")
			return &Client{rdb: rdb}, nil
		}
		log.Info("waiting for redis", "attempt", i+1, "max", 20)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("redis: failed to connect after 20 attempts")
}

// CacheDrivers stores the serialised driver directory with a TTL.
func (c *Client) CacheDrivers(ctx context.Context, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, driversKey, data, ttl).Err()
}

// CachedDrivers returns the serialised driver directory or ErrMiss.
func (c *Client) CachedDrivers(ctx context.Context) ([]byte, error) {
	b, err := c.rdb.Get(ctx, driversKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

// InvalidateDrivers drops the cached driver directory.
func (c *Client) InvalidateDrivers(ctx context.Context) error {
	return c.rdb.Del(ctx, driversKey).Err()
}

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }
