// Package gormstore persists policy records through GORM, covering the
// MySQL, PostgreSQL, and SQLite backends with one implementation.
package gormstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/store"
)

// DefaultTable is the table records live in unless WithTable overrides it.
const DefaultTable = "acl_rules"

// row is the table shape of a policy record. Timestamps are millisecond
// epochs, matching the other kart models.
type row struct {
	ID        string `gorm:"primaryKey;size:26"`
	Effect    string `gorm:"size:16;not null;index:idx_effect"`
	Principal string `gorm:"size:255;not null;default:''"`
	Securable string `gorm:"size:255;not null;default:'';index:idx_securable"`
	Action    string `gorm:"size:255;not null;default:''"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false"`
}

func toRow(r *store.Record) row {
	return row{
		ID:        r.ID,
		Effect:    string(r.Effect),
		Principal: r.Principal,
		Securable: r.Securable,
		Action:    r.Action,
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
	}
}

func (w row) record() *store.Record {
	return &store.Record{
		ID:        w.ID,
		Effect:    store.Effect(w.Effect),
		Principal: w.Principal,
		Securable: w.Securable,
		Action:    w.Action,
		CreatedAt: time.UnixMilli(w.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(w.UpdatedAt).UTC(),
	}
}

// Store implements store.Store on a gorm handle.
type Store struct {
	db    *gorm.DB
	table string
	owner io.Closer
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Pager = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the records table name.
func WithTable(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.table = name
		}
	}
}

func withOwner(c io.Closer) Option {
	return func(s *Store) { s.owner = c }
}

// New wraps an existing gorm handle and migrates the records table. Close
// leaves the handle open; use the Open helpers when the store should own
// its connection.
func New(db *gorm.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm handle cannot be nil")
	}

	s := &Store{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.Table(s.table).AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", s.table, err)
	}
	return s, nil
}

func (s *Store) tx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

// Save inserts or updates the record. A record without an ID gets a fresh
// ULID and CreatedAt; UpdatedAt is touched either way. On an ID conflict
// the stored CreatedAt wins.
func (s *Store) Save(ctx context.Context, r *store.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = store.NewRecordID()
		r.CreatedAt = now
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	w := toRow(r)
	err := s.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"effect", "principal", "securable", "action", "updated_at"}),
	}).Create(&w).Error
	if err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.tx(ctx).Where("id = ?", id).Delete(&row{})
	if res.Error != nil {
		return errors.ErrStoreUnavailable.WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

// DeleteMatching removes every record equal to the tuple and reports how
// many rows went.
func (s *Store) DeleteMatching(ctx context.Context, effect store.Effect, principal, securable, action string) (int64, error) {
	whr := NewWhere(WithFilter(map[string]any{
		"effect":    string(effect),
		"principal": principal,
		"securable": securable,
		"action":    action,
	}))
	res := whr.Where(s.tx(ctx)).Delete(&row{})
	if res.Error != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(res.Error)
	}
	return res.RowsAffected, nil
}

// List returns records scoped to the securable plus wildcard-securable
// records. Records come back in ID order, which for ULIDs is creation
// order.
func (s *Store) List(ctx context.Context, securable string) ([]*store.Record, error) {
	var rows []row
	tx := s.scope(ctx, securable).Order("id")
	if err := tx.Find(&rows).Error; err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	out := make([]*store.Record, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.record())
	}
	return out, nil
}

// Page returns the record count for the securable scope and one window of
// it.
func (s *Store) Page(ctx context.Context, securable string, offset, limit int) (int64, []*store.Record, error) {
	var total int64
	if err := s.scope(ctx, securable).Count(&total).Error; err != nil {
		return 0, nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	var rows []row
	whr := NewWhere(WithOffset(offset), WithLimit(limit))
	if err := whr.Where(s.scope(ctx, securable)).Order("id").Find(&rows).Error; err != nil {
		return 0, nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	out := make([]*store.Record, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.record())
	}
	return total, out, nil
}

func (s *Store) scope(ctx context.Context, securable string) *gorm.DB {
	tx := s.tx(ctx)
	if securable == store.Wildcard {
		return tx
	}
	return NewWhere().Q("securable IN (?, ?)", securable, store.Wildcard).Where(tx)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.tx(ctx).Count(&n).Error; err != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(err)
	}
	return n, nil
}

// Close releases the owned connection, if the store opened one.
func (s *Store) Close() error {
	if s.owner != nil {
		return s.owner.Close()
	}
	return nil
}
