package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockClient is a test implementation of the Client interface.
type mockClient struct {
	name    string
	healthy bool
	closed  bool
}

func (m *mockClient) Name() string {
	return m.name
}

func (m *mockClient) Ping(ctx context.Context) error {
	if !m.healthy {
		return context.DeadlineExceeded
	}
	return nil
}

func (m *mockClient) Close() error {
	m.closed = true
	return nil
}

func (m *mockClient) Health() HealthChecker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return m.Ping(ctx)
	}
}

var _ Client = (*mockClient)(nil)

type mockFactory struct{}

func (m *mockFactory) Create(ctx context.Context) (Client, error) {
	return &mockClient{name: "mock", healthy: true}, nil
}

var _ Factory = (*mockFactory)(nil)

func TestHealthChecker(t *testing.T) {
	healthy := &mockClient{name: "up", healthy: true}
	if err := healthy.Health()(); err != nil {
		t.Errorf("healthy client check failed: %v", err)
	}

	unhealthy := &mockClient{name: "down", healthy: false}
	if err := unhealthy.Health()(); err == nil {
		t.Error("unhealthy client check passed")
	}
}

func TestManagerRegisterAndGet(t *testing.T) {
	mgr := NewManager()

	c := &mockClient{name: "redis", healthy: true}
	if err := mgr.Register("redis-policy", c); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	got, err := mgr.Get("redis-policy")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != c {
		t.Error("Get() returned a different client")
	}

	if !mgr.Has("redis-policy") || mgr.Has("absent") {
		t.Error("Has() inconsistent with registry contents")
	}
	if mgr.Count() != 1 {
		t.Errorf("Count() = %d, want 1", mgr.Count())
	}
}

func TestManagerRegisterErrors(t *testing.T) {
	mgr := NewManager()
	c := &mockClient{name: "redis", healthy: true}

	if err := mgr.Register("", c); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Register(empty name) error = %v, want ErrInvalidConfig", err)
	}
	if err := mgr.Register("x", nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Register(nil client) error = %v, want ErrInvalidConfig", err)
	}

	if err := mgr.Register("dup", c); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := mgr.Register("dup", c); !errors.Is(err, ErrClientAlreadyExists) {
		t.Errorf("duplicate Register() error = %v, want ErrClientAlreadyExists", err)
	}

	if _, err := mgr.Get("absent"); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("Get(absent) error = %v, want ErrClientNotFound", err)
	}
}

func TestManagerHealthCheckAll(t *testing.T) {
	mgr := NewManager()
	mgr.MustRegister("up", &mockClient{name: "up", healthy: true})
	mgr.MustRegister("down", &mockClient{name: "down", healthy: false})

	statuses := mgr.HealthCheckAll(context.Background())
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if !statuses["up"].Healthy {
		t.Error("up client reported unhealthy")
	}
	if statuses["down"].Healthy {
		t.Error("down client reported healthy")
	}
	if statuses["down"].Error == nil {
		t.Error("down client status missing error")
	}

	if mgr.AllHealthy(context.Background()) {
		t.Error("AllHealthy() = true with a failing client")
	}
}

func TestManagerCloseAll(t *testing.T) {
	mgr := NewManager()
	a := &mockClient{name: "a", healthy: true}
	b := &mockClient{name: "b", healthy: true}
	mgr.MustRegister("a", a)
	mgr.MustRegister("b", b)

	if err := mgr.CloseAll(); err != nil {
		t.Fatalf("CloseAll() failed: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("CloseAll() left clients open")
	}
	if mgr.Count() != 0 {
		t.Errorf("Count() = %d after CloseAll, want 0", mgr.Count())
	}
}

func TestStorageErrorSemantics(t *testing.T) {
	wrapped := ErrConnectionFailed.WithMessage("failed to connect to redis at localhost:6379").
		WithCause(context.DeadlineExceeded)

	if !errors.Is(wrapped, ErrConnectionFailed) {
		t.Error("enriched error no longer matches its base")
	}
	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Error("cause not reachable through Unwrap")
	}
	if errors.Is(wrapped, ErrTimeout) {
		t.Error("error matched a different code")
	}

	if !IsStorageError(wrapped) {
		t.Error("IsStorageError() = false for StorageError")
	}
	if se, ok := GetStorageError(wrapped); !ok || se.Code != "CONNECTION_FAILED" {
		t.Errorf("GetStorageError() = %+v, %v", se, ok)
	}
}
