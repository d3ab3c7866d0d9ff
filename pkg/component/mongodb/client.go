// Package mongodb provides a MongoDB client component implementing the
// storage.Client interface.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongodrv "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/guard/pkg/component/storage"
)

// Client wraps mongo.Client with storage.Client interface implementation.
// The underlying MongoDB driver is exposed for direct use.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	opts     *Options
}

// Compile-time check that Client implements storage.Client.
var _ storage.Client = (*Client)(nil)

// New creates a new MongoDB client from the provided options.
func New(opts *Options) (*Client, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext creates a new MongoDB client with context support.
// The context bounds connection establishment and the initial ping.
func NewWithContext(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("mongodb options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid mongodb options: %v", errs)
	}

	uri := BuildURI(opts)

	clientOpts := mongodrv.Client().ApplyURI(uri)

	// Apply connection pool settings
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(opts.MaxConnIdleTime)
	}

	// Apply timeout settings
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.SocketTimeout > 0 {
		clientOpts.SetSocketTimeout(opts.SocketTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	if opts.Direct {
		clientOpts.SetDirect(opts.Direct)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	var db *mongo.Database
	if opts.Database != "" {
		db = client.Database(opts.Database)
	}

	return &Client{
		client:   client,
		database: db,
		opts:     opts,
	}, nil
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "mongodb"
}

// Ping checks if the connection to MongoDB is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("client is nil")
	}
	return c.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// Health returns a HealthChecker function for MongoDB health monitoring.
func (c *Client) Health() storage.HealthChecker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return c.Ping(ctx)
	}
}

// MongoClient returns the underlying mongo.Client for direct access.
func (c *Client) MongoClient() *mongo.Client {
	return c.client
}

// Database returns the configured database handle.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Collection returns a handle to the named collection in the configured database.
func (c *Client) Collection(name string) *mongo.Collection {
	if c.database == nil {
		return nil
	}
	return c.database.Collection(name)
}
