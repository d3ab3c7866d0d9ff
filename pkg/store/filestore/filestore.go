// Package filestore serves policy records from a YAML document. The file
// is the source of truth: the store is read-only, and with watching
// enabled it reloads on change, suppressing events that do not alter the
// policy content.
package filestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
	"golang.org/x/crypto/blake2b"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/utils/json"
	"github.com/kart-io/guard/pkg/validator"
)

// Document is the policy file shape.
type Document struct {
	Version int    `mapstructure:"version" json:"version" validate:"omitempty,eq=1"`
	Rules   []Rule `mapstructure:"rules" json:"rules" validate:"dive"`
}

// Rule is one policy line. Empty scope fields are wildcards. The ID is
// optional; rules without one get a fresh ULID each load.
type Rule struct {
	ID        string `mapstructure:"id" json:"id,omitempty" validate:"omitempty,ulid"`
	Effect    string `mapstructure:"effect" json:"effect" validate:"required,effect"`
	Principal string `mapstructure:"principal" json:"principal,omitempty" validate:"scoperef"`
	Securable string `mapstructure:"securable" json:"securable,omitempty" validate:"scoperef"`
	Action    string `mapstructure:"action" json:"action,omitempty" validate:"omitempty,actionname"`
}

// ReloadFunc receives the new record set after a reload.
type ReloadFunc func(records []*store.Record)

// Store implements a read-only store.Store over a policy file.
type Store struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	records  []*store.Record
	sum      [blake2b.Size256]byte
	onReload []ReloadFunc
	closed   bool
}

var _ store.Store = (*Store)(nil)

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	watch bool
}

// WithWatch enables reloading when the file changes.
func WithWatch(enabled bool) Option {
	return func(c *openConfig) { c.watch = enabled }
}

// Open loads the policy file and optionally starts watching it.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("policy file path cannot be empty")
	}

	cfg := &openConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := viper.New()
	v.SetConfigFile(path)

	s := &Store{path: path, v: v}
	if _, err := s.reload(); err != nil {
		return nil, err
	}

	if cfg.watch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			changed, err := s.reload()
			if err != nil {
				logger.Errorw("Policy file reload failed", "file", e.Name, "error", err)
				return
			}
			if changed {
				logger.Infow("Policy file reloaded", "file", e.Name)
			}
		})
	}
	return s, nil
}

// reload re-reads the file and swaps the record set when its content
// fingerprint changed. Invalid documents leave the current records in
// place.
func (s *Store) reload() (bool, error) {
	if err := s.v.ReadInConfig(); err != nil {
		return false, errors.ErrStoreUnavailable.WithCause(err)
	}

	var doc Document
	if err := s.v.Unmarshal(&doc); err != nil {
		return false, errors.ErrRecordInvalid.WithCause(err)
	}
	if err := validator.Struct(&doc); err != nil {
		return false, errors.ErrRecordInvalid.WithCause(err)
	}

	sum, err := fingerprint(doc.Rules)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, errors.ErrStoreUnavailable.WithMessage("file store is closed")
	}
	if sum == s.sum && s.records != nil {
		s.mu.Unlock()
		return false, nil
	}

	now := time.Now().UTC()
	records := make([]*store.Record, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		id := r.ID
		if id == "" {
			id = store.NewRecordID()
		}
		records = append(records, &store.Record{
			ID:        id,
			Effect:    store.Effect(r.Effect),
			Principal: r.Principal,
			Securable: r.Securable,
			Action:    r.Action,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	s.records = records
	s.sum = sum
	subscribers := make([]ReloadFunc, len(s.onReload))
	copy(subscribers, s.onReload)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(records)
	}
	return true, nil
}

// fingerprint hashes the parsed rules, so cosmetic file edits do not count
// as changes.
func fingerprint(rules []Rule) ([blake2b.Size256]byte, error) {
	data, err := json.Marshal(rules)
	if err != nil {
		return [blake2b.Size256]byte{}, errors.ErrRecordInvalid.WithCause(err)
	}
	return blake2b.Sum256(data), nil
}

// OnReload registers a callback invoked with the new record set after
// every effective reload.
func (s *Store) OnReload(fn ReloadFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Path returns the policy file path.
func (s *Store) Path() string {
	return s.path
}

// Save is not supported; the policy file is the source of truth.
func (s *Store) Save(context.Context, *store.Record) error {
	return errors.ErrStoreReadOnly
}

// Delete is not supported; the policy file is the source of truth.
func (s *Store) Delete(context.Context, string) error {
	return errors.ErrStoreReadOnly
}

// DeleteMatching is not supported; the policy file is the source of truth.
func (s *Store) DeleteMatching(context.Context, store.Effect, string, string, string) (int64, error) {
	return 0, errors.ErrStoreReadOnly
}

// List returns records scoped to the securable plus wildcard-securable
// records, in file order.
func (s *Store) List(_ context.Context, securable string) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.ErrStoreUnavailable.WithMessage("file store is closed")
	}

	out := make([]*store.Record, 0, len(s.records))
	for _, r := range s.records {
		if securable != store.Wildcard && r.Securable != securable && r.Securable != store.Wildcard {
			continue
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

// Count returns the number of loaded records.
func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errors.ErrStoreUnavailable.WithMessage("file store is closed")
	}
	return int64(len(s.records)), nil
}

// Close marks the store closed. Watch events after Close are ignored.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.onReload = nil
	return nil
}
