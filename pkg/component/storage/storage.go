package storage

import (
	"context"
	"time"
)

// Client is the base interface implemented by every storage backend client
// (Redis, MySQL, PostgreSQL, MongoDB, etcd). It covers the lifecycle and
// health surface the manager needs; backend-specific operations live on the
// concrete client types.
type Client interface {
	// Name returns the storage type identifier (e.g. "redis", "mysql").
	Name() string

	// Ping checks if the connection to the backend is alive.
	Ping(ctx context.Context) error

	// Close closes the connection gracefully. Implementations must be
	// idempotent.
	Close() error

	// Health returns a HealthChecker bound to this client.
	Health() HealthChecker
}

// HealthChecker verifies connectivity when called. Implementations
// typically wrap Ping with a bounded timeout.
type HealthChecker func() error

// Factory creates storage clients from pre-bound configuration. Backends
// implement it so the server can construct whichever store the deployment
// selects without knowing backend specifics.
type Factory interface {
	// Create builds, connects, and verifies a new client.
	Create(ctx context.Context) (Client, error)
}

// HealthStatus is the result of a health check on one client.
type HealthStatus struct {
	// Name is the registered client name.
	Name string `json:"name"`

	// Healthy reports whether the check passed.
	Healthy bool `json:"healthy"`

	// Latency is how long the check took.
	Latency time.Duration `json:"latency"`

	// Error is the check failure, nil when healthy.
	Error error `json:"error,omitempty"`
}
