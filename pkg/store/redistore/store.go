// Package redistore persists policy records in Redis, one hash per
// record, and publishes a change fingerprint after every mutation so
// watchers can reload.
package redistore

import (
	"context"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	rediscomp "github.com/kart-io/guard/pkg/component/redis"
	"github.com/kart-io/guard/pkg/errors"
	redisopts "github.com/kart-io/guard/pkg/options/redis"
	"github.com/kart-io/guard/pkg/store"
)

const (
	// DefaultKeyPrefix is the key namespace records live under.
	DefaultKeyPrefix = "guard:acl"

	// DefaultChannel is the pub/sub channel mutations are announced on.
	DefaultChannel = "guard:acl:update"
)

// hash is the field layout of a record hash. Timestamps are millisecond
// epochs.
type hash struct {
	ID        string `redis:"id"`
	Effect    string `redis:"effect"`
	Principal string `redis:"principal"`
	Securable string `redis:"securable"`
	Action    string `redis:"action"`
	CreatedAt int64  `redis:"created_at"`
	UpdatedAt int64  `redis:"updated_at"`
}

func toHash(r *store.Record) hash {
	return hash{
		ID:        r.ID,
		Effect:    string(r.Effect),
		Principal: r.Principal,
		Securable: r.Securable,
		Action:    r.Action,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
	}
}

func (h hash) record() *store.Record {
	return &store.Record{
		ID:        h.ID,
		Effect:    store.Effect(h.Effect),
		Principal: h.Principal,
		Securable: h.Securable,
		Action:    h.Action,
		CreatedAt: time.UnixMilli(h.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(h.UpdatedAt).UTC(),
	}
}

// PublishFunc delivers a change fingerprint to subscribers.
type PublishFunc func(ctx context.Context, payload string) error

// Store implements store.Store on Redis.
type Store struct {
	rdb     *goredis.Client
	prefix  string
	channel string
	publish PublishFunc
	owner   *rediscomp.Client
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the record key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithChannel overrides the announcement channel.
func WithChannel(channel string) Option {
	return func(s *Store) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithPublish replaces the announcement transport. Deployments routing
// announcements through a watcher use this to get instance-ID skipping.
func WithPublish(fn PublishFunc) Option {
	return func(s *Store) { s.publish = fn }
}

// WithoutPublish disables mutation announcements.
func WithoutPublish() Option {
	return func(s *Store) { s.publish = func(context.Context, string) error { return nil } }
}

// New wraps an existing redis component client. Close leaves the client
// open; use Open when the store should own its connection.
func New(client *rediscomp.Client, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	s := &Store{
		rdb:     client.Client(),
		prefix:  DefaultKeyPrefix,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publish == nil {
		s.publish = func(ctx context.Context, payload string) error {
			return s.rdb.Publish(ctx, s.channel, payload).Err()
		}
	}
	return s, nil
}

// Open connects through the redis component and returns a store that owns
// the connection.
func Open(ctx context.Context, o *redisopts.Options, opts ...Option) (*Store, error) {
	client, err := rediscomp.NewWithContext(ctx, o)
	if err != nil {
		return nil, err
	}
	s, err := New(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.owner = client
	return s, nil
}

// Save inserts or updates the record. A record without an ID gets a fresh
// ULID and CreatedAt; UpdatedAt is touched either way. A record whose
// securable changed moves to its new bucket.
func (s *Store) Save(ctx context.Context, r *store.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = store.NewRecordID()
		r.CreatedAt = now
	} else if old, err := s.findKey(ctx, r.ID); err != nil {
		return err
	} else if old != "" {
		var existing hash
		if err := s.rdb.HGetAll(ctx, old).Scan(&existing); err != nil {
			return errors.ErrStoreUnavailable.WithCause(err)
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.UnixMilli(existing.CreatedAt).UTC()
		}
		if existing.Securable != r.Securable {
			if err := s.rdb.Del(ctx, old).Err(); err != nil {
				return errors.ErrStoreUnavailable.WithCause(err)
			}
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	key := recordKey(s.prefix, r.Securable, r.ID)
	h := toHash(r)
	if err := s.rdb.HSet(ctx, key, h).Err(); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return s.announce(ctx)
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	key, err := s.findKey(ctx, id)
	if err != nil {
		return err
	}
	if key == "" {
		return errors.ErrRecordNotFound
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return s.announce(ctx)
}

// DeleteMatching removes every record equal to the tuple and reports how
// many went.
func (s *Store) DeleteMatching(ctx context.Context, effect store.Effect, principal, securable, action string) (int64, error) {
	keys, err := s.scanKeys(ctx, scopePattern(s.prefix, securable))
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, key := range keys {
		var h hash
		if err := s.rdb.HGetAll(ctx, key).Scan(&h); err != nil {
			return removed, errors.ErrStoreUnavailable.WithCause(err)
		}
		if !h.record().Matches(effect, principal, securable, action) {
			continue
		}
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return removed, errors.ErrStoreUnavailable.WithCause(err)
		}
		removed++
	}

	if removed > 0 {
		if err := s.announce(ctx); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// List returns records scoped to the securable plus wildcard-securable
// records, in ID order.
func (s *Store) List(ctx context.Context, securable string) ([]*store.Record, error) {
	patterns := []string{allPattern(s.prefix)}
	if securable != store.Wildcard {
		patterns = []string{
			scopePattern(s.prefix, securable),
			scopePattern(s.prefix, store.Wildcard),
		}
	}

	seen := make(map[string]struct{})
	var records []*store.Record
	for _, pattern := range patterns {
		keys, err := s.scanKeys(ctx, pattern)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			var h hash
			if err := s.rdb.HGetAll(ctx, key).Scan(&h); err != nil {
				return nil, errors.ErrStoreUnavailable.WithCause(err)
			}
			if h.ID == "" {
				// Deleted between scan and read.
				continue
			}
			records = append(records, h.record())
		}
	}

	// ULID order is creation order; SCAN returns keys unordered.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	keys, err := s.scanKeys(ctx, allPattern(s.prefix))
	if err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}

// Close releases the owned connection, if the store opened one.
func (s *Store) Close() error {
	if s.owner != nil {
		return s.owner.Close()
	}
	return nil
}

func (s *Store) announce(ctx context.Context) error {
	if err := s.publish(ctx, store.NewRecordID()); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

func (s *Store) findKey(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	keys, err := s.scanKeys(ctx, idPattern(s.prefix, id))
	if err != nil {
		return "", err
	}
	for _, key := range keys {
		if keyID(key) == id {
			return key, nil
		}
	}
	return "", nil
}

func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}
	return keys, nil
}
