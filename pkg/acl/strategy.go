package acl

import (
	"github.com/kart-io/guard/pkg/errors"
)

// Query is a single decision tuple. Principal, Securable, and Action carry
// the request scope; Data carries request context for custom strategies and
// is ignored by the built-in ones. A nil field states that the request does
// not constrain that dimension.
type Query struct {
	Principal any
	Securable any
	Action    any
	Data      any
}

// Strategy renders the verdict for a decision tuple. A strategy that
// answers true to both Permits and Denies nets out to a denial; denial
// always wins.
//
// Implementations must be safe for concurrent use.
type Strategy interface {
	// Permits reports whether the tuple should be allowed.
	Permits(q Query) bool

	// Denies reports whether the tuple should be vetoed.
	Denies(q Query) bool
}

type permitStrategy struct{}

func (permitStrategy) Permits(Query) bool { return true }
func (permitStrategy) Denies(Query) bool  { return false }

type denyStrategy struct{}

func (denyStrategy) Permits(Query) bool { return false }
func (denyStrategy) Denies(Query) bool  { return true }

// Built-in strategies. Entries carrying them are deduplicated by the List
// mutation helpers, so permitting the same scope twice is a no-op.
var (
	// Permit is the static always-permitting strategy.
	Permit Strategy = permitStrategy{}

	// Deny is the static always-denying strategy.
	Deny Strategy = denyStrategy{}
)

// StrategyFunc adapts a permit predicate into a Strategy that never denies.
type StrategyFunc func(q Query) bool

// Permits reports the predicate's answer.
func (f StrategyFunc) Permits(q Query) bool { return f != nil && f(q) }

// Denies always reports false.
func (StrategyFunc) Denies(Query) bool { return false }

// StrategyFuncs adapts a permit and deny predicate pair into a Strategy.
// Both funcs must be set; NewEntry rejects a partial pair. Pass a
// *StrategyFuncs when entries holding it should compare by identity.
type StrategyFuncs struct {
	PermitsFunc func(q Query) bool
	DeniesFunc  func(q Query) bool
}

// Permits reports the permit predicate's answer.
func (s StrategyFuncs) Permits(q Query) bool {
	return s.PermitsFunc != nil && s.PermitsFunc(q)
}

// Denies reports the deny predicate's answer.
func (s StrategyFuncs) Denies(q Query) bool {
	return s.DeniesFunc != nil && s.DeniesFunc(q)
}

// validateStrategy rejects strategies that cannot render decisions: nil
// strategies and func adapters with missing predicates.
func validateStrategy(s Strategy) error {
	switch v := s.(type) {
	case nil:
		return errors.ErrInvalidStrategy.WithMessage("strategy is nil")
	case StrategyFunc:
		if v == nil {
			return errors.ErrInvalidStrategy.WithMessage("strategy func is nil")
		}
	case StrategyFuncs:
		if v.PermitsFunc == nil || v.DeniesFunc == nil {
			return errors.ErrInvalidStrategy.WithMessage("strategy funcs must set both PermitsFunc and DeniesFunc")
		}
	case *StrategyFuncs:
		if v == nil || v.PermitsFunc == nil || v.DeniesFunc == nil {
			return errors.ErrInvalidStrategy.WithMessage("strategy funcs must set both PermitsFunc and DeniesFunc")
		}
	}
	return nil
}
