package watcher

import (
	"testing"
	"time"

	"github.com/kart-io/guard/pkg/pool"
)

var (
	_ Watcher = (*RedisWatcher)(nil)
	_ Watcher = (*EtcdWatcher)(nil)
)

func TestMessageRoundTrip(t *testing.T) {
	raw := encodeMessage("instance-1", "rev-42")

	instance, payload := decodeMessage(raw)
	if instance != "instance-1" {
		t.Fatalf("instance = %q, want instance-1", instance)
	}
	if payload != "rev-42" {
		t.Fatalf("payload = %q, want rev-42", payload)
	}
}

func TestDecodeMessagePlainPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "rev-42"},
		{"json without instance", `{"payload":"rev-42"}`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, payload := decodeMessage(tt.raw)
			if instance != "" {
				t.Fatalf("instance = %q, want empty", instance)
			}
			if payload != tt.raw {
				t.Fatalf("payload = %q, want raw %q", payload, tt.raw)
			}
		})
	}
}

func TestDispatchWithoutPool(t *testing.T) {
	done := make(chan string, 1)
	dispatch(nil, func(payload string) { done <- payload }, "rev-1")

	select {
	case got := <-done:
		if got != "rev-1" {
			t.Fatalf("payload = %q, want rev-1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}
}

func TestDispatchOnPool(t *testing.T) {
	p, err := pool.NewPool("test-callbacks", pool.CallbackConfig())
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Release()

	done := make(chan struct{}, 1)
	dispatch(p, func(string) { done <- struct{}{} }, "rev-1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}
}

func TestDispatchNilCallback(t *testing.T) {
	// Must not panic.
	dispatch(nil, nil, "rev-1")
}

func TestDispatchRecoversPanic(t *testing.T) {
	done := make(chan struct{}, 1)
	dispatch(nil, func(string) {
		defer func() { done <- struct{}{} }()
		panic("boom")
	}, "rev-1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}
}

func TestNewRedisWatcherRejectsNilClient(t *testing.T) {
	if _, err := NewRedisWatcher(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestNewEtcdWatcherRejectsNilClient(t *testing.T) {
	if _, err := NewEtcdWatcher(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}
