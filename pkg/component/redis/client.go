// Package redis provides a Redis client component implementing the
// storage.Client interface.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/guard/pkg/component/storage"
)

// Client wraps go-redis with storage.Client interface implementation.
type Client struct {
	client *goredis.Client
	opts   *Options
}

// Compile-time check that Client implements storage.Client.
var _ storage.Client = (*Client)(nil)

// New creates a new Redis client from the provided options.
func New(opts *Options) (*Client, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext creates a new Redis client and verifies connectivity
// before returning. The context bounds the initial ping.
func NewWithContext(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid redis options: %v", errs)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.Database,
		MaxRetries:   opts.MaxRetries,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolTimeout:  opts.PoolTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{
		client: rdb,
		opts:   opts,
	}, nil
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "redis"
}

// Ping checks if the connection to Redis is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health returns a HealthChecker function for Redis health monitoring.
func (c *Client) Health() storage.HealthChecker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return c.Ping(ctx)
	}
}

// Client returns the underlying go-redis client for direct access.
func (c *Client) Client() *goredis.Client {
	return c.client
}

// Options returns the options used to create this client.
func (c *Client) Options() *Options {
	return c.opts
}

// Do executes an arbitrary Redis command.
func (c *Client) Do(ctx context.Context, args ...interface{}) *goredis.Cmd {
	return c.client.Do(ctx, args...)
}

// Pipeline returns a pipeline for batching commands.
func (c *Client) Pipeline() goredis.Pipeliner {
	return c.client.Pipeline()
}

// TxPipeline returns a transactional pipeline.
func (c *Client) TxPipeline() goredis.Pipeliner {
	return c.client.TxPipeline()
}
