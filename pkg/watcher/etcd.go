package watcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kart-io/logger"
	clientv3 "go.etcd.io/etcd/client/v3"

	etcdcomp "github.com/kart-io/guard/pkg/component/etcd"
	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/pool"
	"github.com/kart-io/guard/pkg/utils/id"
)

// DefaultRevisionKey is the key policy changes are announced under.
const DefaultRevisionKey = "/guard/acl/revision"

// EtcdWatcher propagates change payloads through an etcd key. Publish
// writes the payload; subscribers watch the key and react to puts from
// other instances.
type EtcdWatcher struct {
	client   *etcdcomp.Client
	key      string
	instance string

	mu       sync.Mutex
	callback func(string)
	cancel   context.CancelFunc

	closed atomic.Bool
	wg     sync.WaitGroup

	pool      *pool.Pool
	ownedPool bool
}

// EtcdOption configures an EtcdWatcher.
type EtcdOption func(*EtcdWatcher)

// WithRevisionKey overrides the announcement key.
func WithRevisionKey(key string) EtcdOption {
	return func(w *EtcdWatcher) {
		if key != "" {
			w.key = key
		}
	}
}

// WithEtcdInstanceID overrides the generated instance identifier.
func WithEtcdInstanceID(instance string) EtcdOption {
	return func(w *EtcdWatcher) {
		if instance != "" {
			w.instance = instance
		}
	}
}

// WithEtcdCallbackPool runs callbacks on the given pool instead of an
// owned one.
func WithEtcdCallbackPool(p *pool.Pool) EtcdOption {
	return func(w *EtcdWatcher) {
		w.pool = p
		w.ownedPool = false
	}
}

// NewEtcdWatcher builds a watcher on the etcd component client. The watch
// starts on the first Subscribe call.
func NewEtcdWatcher(client *etcdcomp.Client, opts ...EtcdOption) (*EtcdWatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("etcd client cannot be nil")
	}

	w := &EtcdWatcher{
		client:   client,
		key:      DefaultRevisionKey,
		instance: id.NewULID(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.pool == nil {
		p, err := pool.NewPool("watcher-callbacks", pool.CallbackConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create callback pool: %w", err)
		}
		w.pool = p
		w.ownedPool = true
	}
	return w, nil
}

// Instance returns the watcher's self-skip identifier.
func (w *EtcdWatcher) Instance() string {
	return w.instance
}

// Subscribe registers the callback and starts the watch on first use.
// Later calls replace the callback.
func (w *EtcdWatcher) Subscribe(cb func(payload string)) error {
	if w.closed.Load() {
		return errors.ErrWatcherClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.callback = cb
	if w.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		w.cancel = cancel
		w.startLoop(w.client.Watch(ctx, w.key))
	}
	return nil
}

func (w *EtcdWatcher) startLoop(wch clientv3.WatchChan) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Recovered from panic in watcher subscription",
					"error", r,
					"key", w.key,
				)
			}
		}()

		for resp := range wch {
			if err := resp.Err(); err != nil {
				logger.Warnw("Watch error", "key", w.key, "error", err)
				continue
			}
			for _, ev := range resp.Events {
				if ev.Type != clientv3.EventTypePut {
					continue
				}
				w.deliver(string(ev.Kv.Value))
			}
		}
	}()
}

func (w *EtcdWatcher) deliver(raw string) {
	instance, payload := decodeMessage(raw)
	if instance != "" && instance == w.instance {
		logger.Debugw("Skipping own announcement", "key", w.key)
		return
	}

	w.mu.Lock()
	cb := w.callback
	w.mu.Unlock()

	dispatch(w.pool, cb, payload)
}

// Publish writes the payload to the revision key.
func (w *EtcdWatcher) Publish(ctx context.Context, payload string) error {
	if w.closed.Load() {
		return errors.ErrWatcherClosed
	}
	return w.client.Put(ctx, w.key, encodeMessage(w.instance, payload))
}

// Close stops the watch and releases the owned callback pool. The etcd
// client itself stays open; its owner closes it.
func (w *EtcdWatcher) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}

	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	w.wg.Wait()
	if w.ownedPool && w.pool != nil {
		w.pool.Release()
	}
	return nil
}
