package watcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	rediscomp "github.com/kart-io/guard/pkg/component/redis"
	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/pool"
	"github.com/kart-io/guard/pkg/utils/id"
)

// DefaultChannel is the pub/sub channel policy changes are announced on.
const DefaultChannel = "guard:acl:update"

// RedisWatcher propagates change payloads over Redis pub/sub. Payloads
// carry the publishing instance's ID, so a subscriber never reacts to its
// own announcements.
type RedisWatcher struct {
	rdb      *goredis.Client
	channel  string
	instance string

	mu       sync.Mutex
	callback func(string)
	pubsub   *goredis.PubSub

	closeCh chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup

	pool      *pool.Pool
	ownedPool bool
}

// RedisOption configures a RedisWatcher.
type RedisOption func(*RedisWatcher)

// WithChannel overrides the announcement channel.
func WithChannel(channel string) RedisOption {
	return func(w *RedisWatcher) {
		if channel != "" {
			w.channel = channel
		}
	}
}

// WithInstanceID overrides the generated instance identifier.
func WithInstanceID(instance string) RedisOption {
	return func(w *RedisWatcher) {
		if instance != "" {
			w.instance = instance
		}
	}
}

// WithCallbackPool runs callbacks on the given pool instead of an owned
// one. The caller keeps responsibility for releasing it.
func WithCallbackPool(p *pool.Pool) RedisOption {
	return func(w *RedisWatcher) {
		w.pool = p
		w.ownedPool = false
	}
}

// NewRedisWatcher builds a watcher on the redis component client. The
// subscription starts on the first Subscribe call, so publish-only users
// never open a pub/sub connection.
func NewRedisWatcher(client *rediscomp.Client, opts ...RedisOption) (*RedisWatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	w := &RedisWatcher{
		rdb:      client.Client(),
		channel:  DefaultChannel,
		instance: id.NewULID(),
		closeCh:  make(chan struct{}),
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
func (w *RedisWatcher) Instance() string {
	return w.instance
}

// Subscribe registers the callback and starts the subscription loop on
// first use. Later calls replace the callback.
func (w *RedisWatcher) Subscribe(cb func(payload string)) error {
	if w.closed.Load() {
		return errors.ErrWatcherClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.callback = cb
	if w.pubsub == nil {
		w.pubsub = w.rdb.Subscribe(context.Background(), w.channel)
		w.startLoop(w.pubsub)
	}
	return nil
}

func (w *RedisWatcher) startLoop(ps *goredis.PubSub) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Recovered from panic in watcher subscription",
					"error", r,
					"channel", w.channel,
				)
			}
		}()

		ch := ps.Channel()
		for {
			select {
			case <-w.closeCh:
				return
			case msg, ok := <-ch:
				if !ok {
					w.handleChannelClosed()
					return
				}
				w.deliver(msg.Payload)
			}
		}
	}()
}

func (w *RedisWatcher) handleChannelClosed() {
	select {
	case <-w.closeCh:
		logger.Debugw("Watcher subscription closed", "channel", w.channel)
	default:
		logger.Warnw("Watcher subscription closed unexpectedly",
			"channel", w.channel,
			"reason", "possible network disconnect or Redis error",
		)
	}
}

func (w *RedisWatcher) deliver(raw string) {
	instance, payload := decodeMessage(raw)
	if instance != "" && instance == w.instance {
		logger.Debugw("Skipping own announcement", "channel", w.channel)
		return
	}

	w.mu.Lock()
	cb := w.callback
	w.mu.Unlock()

	dispatch(w.pool, cb, payload)
}

// Publish announces a payload to other instances.
func (w *RedisWatcher) Publish(ctx context.Context, payload string) error {
	if w.closed.Load() {
		return errors.ErrWatcherClosed
	}
	return w.rdb.Publish(ctx, w.channel, encodeMessage(w.instance, payload)).Err()
}

// Close stops the subscription loop and releases the owned callback pool.
func (w *RedisWatcher) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(w.closeCh)

	w.mu.Lock()
	ps := w.pubsub
	w.mu.Unlock()
	if ps != nil {
		_ = ps.Close()
	}

	w.wg.Wait()
	if w.ownedPool && w.pool != nil {
		w.pool.Release()
	}
	return nil
}
