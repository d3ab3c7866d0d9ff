package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/store"
)

// DefaultReloadTimeout bounds a store read triggered by a notification.
const DefaultReloadTimeout = 10 * time.Second

// Reloader keeps a live list in sync with a store. Notifications from the
// watcher trigger a reload; Notify announces a local mutation to other
// instances and reloads immediately, since watchers skip their own
// announcements.
type Reloader struct {
	watcher   Watcher
	store     store.Store
	list      *acl.List
	securable string
	timeout   time.Duration
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithSecurable scopes reloads to one securable. The default reloads
// everything.
func WithSecurable(securable string) ReloaderOption {
	return func(r *Reloader) { r.securable = securable }
}

// WithReloadTimeout bounds the store read per reload.
func WithReloadTimeout(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewReloader subscribes to the watcher and keeps the list loaded from
// the store. The list is filled once before NewReloader returns.
func NewReloader(w Watcher, s store.Store, l *acl.List, opts ...ReloaderOption) (*Reloader, error) {
	if w == nil {
		return nil, fmt.Errorf("watcher cannot be nil")
	}
	if s == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if l == nil {
		return nil, fmt.Errorf("list cannot be nil")
	}

	r := &Reloader{
		watcher:   w,
		store:     s,
		list:      l,
		securable: store.Wildcard,
		timeout:   DefaultReloadTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}

	if err := w.Subscribe(r.onNotify); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reloader) onNotify(payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.Reload(ctx); err != nil {
		logger.Errorw("Policy reload failed", "payload", payload, "error", err)
		return
	}
	logger.Infow("Policy reloaded", "payload", payload, "entries", r.list.Len())
}

// Reload reads the store and atomically swaps the list contents.
func (r *Reloader) Reload(ctx context.Context) error {
	records, err := r.store.List(ctx, r.securable)
	if err != nil {
		return err
	}
	loaded, err := store.BuildList(records)
	if err != nil {
		return err
	}
	r.list.SetEntries(loaded.Entries())
	return nil
}

// Notify announces a local mutation and reloads the local list. Call it
// after writing to the store.
func (r *Reloader) Notify(ctx context.Context) error {
	if err := r.watcher.Publish(ctx, store.NewRecordID()); err != nil {
		return err
	}
	return r.Reload(ctx)
}

// List returns the live list the reloader maintains.
func (r *Reloader) List() *acl.List {
	return r.list
}
