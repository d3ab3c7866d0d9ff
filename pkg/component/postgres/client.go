// Package postgres provides a GORM-backed PostgreSQL client component
// implementing the storage.Client interface.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/guard/pkg/component/storage"
)

// Client wraps gorm.DB and provides a PostgreSQL database client.
type Client struct {
	db   *gorm.DB
	opts *Options
}

// Compile-time check that Client implements storage.Client.
var _ storage.Client = (*Client)(nil)

// New creates a new PostgreSQL client from the provided options.
func New(opts *Options) (*Client, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext creates a new PostgreSQL client with the given context.
// This allows for timeout and cancellation during connection establishment.
func NewWithContext(ctx context.Context, opts *Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid postgres options: %v", errs)
	}

	dsn := BuildDSN(opts)

	logLevel := gormlogger.Silent
	switch opts.LogLevel {
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	case 4:
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(opts.MaxConnectionLifeTime)

	client := &Client{
		db:   db,
		opts: opts,
	}

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return client, nil
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// SqlDB returns the underlying sql.DB instance.
func (c *Client) SqlDB() (*sql.DB, error) {
	if c.db == nil {
		return nil, fmt.Errorf("gorm.DB is nil")
	}
	return c.db.DB()
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "postgres"
}

// Ping verifies the connection to the PostgreSQL database.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.SqlDB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	return nil
}

// Close closes the database connection and releases resources.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}

	sqlDB, err := c.SqlDB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for closing: %w", err)
	}

	return sqlDB.Close()
}

// Health returns a HealthChecker function for PostgreSQL health monitoring.
func (c *Client) Health() storage.HealthChecker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.Ping(ctx)
	}
}

// Stats returns database connection statistics.
func (c *Client) Stats() (sql.DBStats, error) {
	sqlDB, err := c.SqlDB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
