// Package store persists access control policy as flat records.
//
// The in-memory engine in pkg/acl works with arbitrary values and
// strategies; the store deliberately handles only the static subset that
// survives serialization: permit or deny, for a principal, securable, and
// action named by strings. An empty string means the field is a wildcard,
// mirroring a nil scope value on an entry. Richer strategies and non-string
// scope values live in memory only and are composed around the loaded list
// by the caller.
//
// Backends share one contract so guardd and guardctl can switch between
// them by configuration: memory (reference and test double), gormstore
// (MySQL, PostgreSQL, SQLite), redistore, mongostore, and the read-only
// filestore.
package store

import (
	"context"
	"time"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/utils/id"
)

// Effect is the stored verdict of a record.
type Effect string

const (
	// EffectPermit marks a record that allows matching requests.
	EffectPermit Effect = "permit"

	// EffectDeny marks a record that vetoes matching requests.
	EffectDeny Effect = "deny"
)

// Valid reports whether the effect is one of the stored verdicts.
func (e Effect) Valid() bool {
	return e == EffectPermit || e == EffectDeny
}

// Wildcard is the stored form of an unconstrained scope field.
const Wildcard = ""

// Record is one persisted policy rule. Scope fields hold the exact string
// the rule constrains, or Wildcard for no constraint.
type Record struct {
	ID        string    `json:"id"`
	Effect    Effect    `json:"effect"`
	Principal string    `json:"principal"`
	Securable string    `json:"securable"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate reports whether the record can be applied as policy.
func (r *Record) Validate() error {
	if r == nil {
		return errors.ErrRecordInvalid.WithMessage("record is nil")
	}
	if !r.Effect.Valid() {
		return errors.ErrRecordInvalid.WithMessagef("unknown effect %q", r.Effect)
	}
	return nil
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Rule converts the record into an engine rule: wildcard fields become nil
// scope values, the effect selects the built-in strategy.
func (r *Record) Rule() acl.Rule {
	strategy := acl.Permit
	if r.Effect == EffectDeny {
		strategy = acl.Deny
	}
	return acl.Rule{
		Strategy:  strategy,
		Principal: scopeValue(r.Principal),
		Securable: scopeValue(r.Securable),
		Action:    scopeValue(r.Action),
	}
}

// Matches reports whether every field of the record equals the given
// tuple. Wildcard arguments match only wildcard fields; this is exact
// record identity, not the engine's covers relation.
func (r *Record) Matches(effect Effect, principal, securable, action string) bool {
	return r.Effect == effect &&
		r.Principal == principal &&
		r.Securable == securable &&
		r.Action == action
}

func scopeValue(s string) any {
	if s == Wildcard {
		return nil
	}
	return s
}

// ScopeString is the inverse of the record scope encoding: nil becomes
// Wildcard, strings pass through. Used by callers translating engine scope
// values back into store fields.
func ScopeString(v any) (string, bool) {
	if v == nil {
		return Wildcard, true
	}
	s, ok := v.(string)
	return s, ok
}

// Store is the persistence contract for policy records.
//
// Save assigns a ULID and CreatedAt to records without an ID, and touches
// UpdatedAt either way. Delete removes by ID and returns ErrRecordNotFound
// for unknown IDs. DeleteMatching removes every record equal to the tuple
// (exact match, see Record.Matches) and reports how many went. List with a
// securable returns records scoped to it plus wildcard-securable records,
// in insertion order; List with Wildcard returns everything.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id string) error
	DeleteMatching(ctx context.Context, effect Effect, principal, securable, action string) (int64, error)
	List(ctx context.Context, securable string) ([]*Record, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Pager is an optional capability for backends with native pagination.
// Page returns the total record count for the securable scope and one
// window of it, ordered like List. Offset and limit follow slice
// conventions; limit <= 0 means no limit.
type Pager interface {
	Page(ctx context.Context, securable string, offset, limit int) (int64, []*Record, error)
}

// PageRecords windows an already-loaded slice the way Pager does, for
// backends without native pagination.
func PageRecords(records []*Record, offset, limit int) (int64, []*Record) {
	total := int64(len(records))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return total, nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return total, records
}

// NewRecordID returns a fresh sortable record identifier.
func NewRecordID() string {
	return id.NewULID()
}

// BuildList replays records into a fresh list in the given order. Records
// that fail Validate abort the build.
func BuildList(records []*Record, opts ...acl.ListOption) (*acl.List, error) {
	l := acl.NewList(opts...)
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if err := l.Secure(r.Rule()); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Load reads every record for the securable and replays them into a list.
func Load(ctx context.Context, s Store, securable string, opts ...acl.ListOption) (*acl.List, error) {
	records, err := s.List(ctx, securable)
	if err != nil {
		return nil, err
	}
	return BuildList(records, opts...)
}
