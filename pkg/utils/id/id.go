// Package id generates unique identifiers for policy records.
//
// Records are keyed by ULIDs: 26-character, lexicographically sortable
// identifiers whose prefix encodes the creation time, so listing records
// by ID also lists them in creation order.
//
// Usage:
//
//	rid := id.NewULID() // e.g. "01ARZ3NDEKTSV4RRFFQ69G5FAV"
//
//	// or with a dedicated generator
//	gen := id.NewULIDGenerator()
//	rid := gen.Generate()
package id

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidULID is returned when a ULID string cannot be parsed.
var ErrInvalidULID = errors.New("invalid ULID format")

// Generator defines the interface for ID generators.
type Generator interface {
	// Generate creates a new unique ID.
	Generate() string

	// GenerateN creates n unique IDs.
	GenerateN(n int) []string
}

// ULIDGenerator generates ULIDs with monotonic entropy, so IDs created
// within the same millisecond still sort in creation order.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator creates a ULID generator seeded from the current time.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Generate creates a new ULID string.
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// GenerateN creates n ULID strings.
func (g *ULIDGenerator) GenerateN(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = g.Generate()
	}
	return ids
}

var (
	defaultULID *ULIDGenerator
	initOnce    sync.Once
)

func defaultGenerator() *ULIDGenerator {
	initOnce.Do(func() {
		defaultULID = NewULIDGenerator()
	})
	return defaultULID
}

// NewULID generates a new ULID string using the default generator.
func NewULID() string {
	return defaultGenerator().Generate()
}

// ParseULID parses s as a ULID and reports its embedded creation time.
func ParseULID(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, ErrInvalidULID
	}
	return ulid.Time(u.Time()), nil
}

// IsULID reports whether s is a well-formed ULID.
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
