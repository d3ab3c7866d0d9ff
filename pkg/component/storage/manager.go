package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/guard/pkg/pool"
)

// Manager manages multiple storage clients and provides centralized
// health checking, lifecycle management, and a client registry.
// It is safe for concurrent use.
//
// Example usage:
//
//	mgr := storage.NewManager()
//	mgr.MustRegister("redis-policy", redisClient)
//	mgr.MustRegister("mysql-policy", mysqlClient)
//
//	statuses := mgr.HealthCheckAll(ctx)
//	defer mgr.CloseAll()
type Manager struct {
	mu         sync.RWMutex
	clients    map[string]Client
	healthPool *pool.Pool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHealthCheckPool runs concurrent health checks on the given worker
// pool instead of unbounded goroutines.
func WithHealthCheckPool(p *pool.Pool) ManagerOption {
	return func(m *Manager) {
		m.healthPool = p
	}
}

// NewManager creates a new storage manager instance.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		clients: make(map[string]Client),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register registers a storage client under a unique name
// (e.g. "redis-policy", "mysql-primary").
func (m *Manager) Register(name string, client Client) error {
	if name == "" {
		return ErrInvalidConfig.WithMessage("client name cannot be empty")
	}
	if client == nil {
		return ErrInvalidConfig.WithMessage("client cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return ErrClientAlreadyExists.WithMessage(fmt.Sprintf("client '%s' is already registered", name))
	}

	m.clients[name] = client
	return nil
}

// MustRegister registers a storage client and panics if registration
// fails. Use in initialization code where failure should be fatal.
func (m *Manager) MustRegister(name string, client Client) {
	if err := m.Register(name, client); err != nil {
		panic(fmt.Sprintf("failed to register storage client: %v", err))
	}
}

// Unregister removes a storage client from the manager without closing it.
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; !exists {
		return ErrClientNotFound.WithMessage(fmt.Sprintf("client '%s' not found", name))
	}

	delete(m.clients, name)
	return nil
}

// Get retrieves a storage client by name.
func (m *Manager) Get(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, ErrClientNotFound.WithMessage(fmt.Sprintf("client '%s' not found", name))
	}

	return client, nil
}

// Has checks if a client with the given name is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.clients[name]
	return exists
}

// List returns the names of all registered clients.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}

	return names
}

// Count returns the number of registered clients.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// HealthCheck performs a health check on a specific client, measuring
// latency and capturing any error.
func (m *Manager) HealthCheck(ctx context.Context, name string) HealthStatus {
	client, err := m.Get(name)
	if err != nil {
		return HealthStatus{
			Name:    name,
			Healthy: false,
			Error:   err,
		}
	}

	start := time.Now()
	err = client.Ping(ctx)
	latency := time.Since(start)

	return HealthStatus{
		Name:    name,
		Healthy: err == nil,
		Latency: latency,
		Error:   err,
	}
}

// HealthCheckAll performs health checks on all registered clients
// concurrently. Checks run on the configured worker pool when one is set,
// falling back to plain goroutines when submission fails.
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	m.mu.RLock()
	clients := make(map[string]Client, len(m.clients))
	for name, client := range m.clients {
		clients[name] = client
	}
	m.mu.RUnlock()

	statuses := make(map[string]HealthStatus, len(clients))
	var statusMu sync.Mutex
	var wg sync.WaitGroup

	for name, client := range clients {
		wg.Add(1)
		n, c := name, client
		task := func() {
			defer wg.Done()

			start := time.Now()
			err := c.Ping(ctx)
			latency := time.Since(start)

			statusMu.Lock()
			statuses[n] = HealthStatus{
				Name:    n,
				Healthy: err == nil,
				Latency: latency,
				Error:   err,
			}
			statusMu.Unlock()
		}

		if m.healthPool != nil {
			if submitErr := m.healthPool.Submit(task); submitErr != nil {
				go task()
			}
		} else {
			go task()
		}
	}

	wg.Wait()
	return statuses
}

// AllHealthy reports whether every registered client passes its health
// check.
func (m *Manager) AllHealthy(ctx context.Context) bool {
	statuses := m.HealthCheckAll(ctx)
	for _, status := range statuses {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// Close closes a specific client and removes it from the manager.
func (m *Manager) Close(name string) error {
	client, err := m.Get(name)
	if err != nil {
		return err
	}

	if closeErr := client.Close(); closeErr != nil {
		return closeErr
	}

	return m.Unregister(name)
}

// CloseAll closes all registered clients, returning the first error
// encountered. Call during application shutdown.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error

	for name, client := range m.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close client '%s': %w", name, err)
		}
		delete(m.clients, name)
	}

	return firstErr
}
