// Package etcd provides an etcd client component implementing the
// storage.Client interface.
package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kart-io/guard/pkg/component/storage"
)

// Client wraps clientv3.Client with storage.Client interface implementation.
type Client struct {
	client *clientv3.Client
	opts   *Options
}

// Compile-time check that Client implements storage.Client.
var _ storage.Client = (*Client)(nil)

// New creates a new etcd client from the provided options.
func New(opts *Options) (*Client, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext creates a new etcd client and verifies connectivity
// before returning. The context bounds the initial status check.
func NewWithContext(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("etcd options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid etcd options: %v", errs)
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
		Username:    opts.Username,
		Password:    opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	client := &Client{
		client: cli,
		opts:   opts,
	}

	// Verify connection
	if err := client.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("failed to ping etcd: %w", err)
	}

	return client, nil
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "etcd"
}

// Ping checks if the etcd cluster responds to a status request.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	_, err := c.client.Status(ctx, c.opts.Endpoints[0])
	return err
}

// Close closes the etcd connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health returns a HealthChecker function for etcd health monitoring.
func (c *Client) Health() storage.HealthChecker {
	return func() error {
		return c.Ping(context.Background())
	}
}

// Client returns the underlying clientv3.Client for direct access.
func (c *Client) Client() *clientv3.Client {
	return c.client
}

// Put stores a key-value pair, applying the configured request timeout.
func (c *Client) Put(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	_, err := c.client.Put(ctx, key, value)
	return err
}

// Get retrieves the value stored under key.
// Returns an empty string without error if the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	resp, err := c.client.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}

// Delete removes the key.
func (c *Client) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	_, err := c.client.Delete(ctx, key)
	return err
}

// Watch returns a channel of change events for key.
// The channel stays open until ctx is cancelled.
func (c *Client) Watch(ctx context.Context, key string, opts ...clientv3.OpOption) clientv3.WatchChan {
	return c.client.Watch(ctx, key, opts...)
}
