// Package casbin bridges a Casbin policy set into the decision engine.
// An entry whose strategy delegates to an enforcer lets one list mix
// native entries with policies managed elsewhere.
package casbin

import (
	"fmt"

	"github.com/casbin/casbin/v2"

	"github.com/kart-io/guard/pkg/acl"
)

// effectDeny is the eft column value marking deny rules.
const effectDeny = "deny"

// Option configures a Strategy.
type Option func(*Strategy)

// WithStringifier replaces how query values become Casbin request
// values. The default passes strings through and formats everything
// else with fmt.Sprint.
func WithStringifier(fn func(v any) string) Option {
	return func(s *Strategy) {
		if fn != nil {
			s.stringify = fn
		}
	}
}

// Strategy adapts a Casbin enforcer to the decision Strategy interface.
// Permits asks the enforcer for a verdict; Denies vetoes only when the
// matched rule carries the deny effect, so models without an eft column
// never veto. Tuples with a nil principal, securable, or action are
// outside Casbin's request model and get neither a permit nor a veto.
//
// Use a SyncedEnforcer when policies mutate while decisions run.
type Strategy struct {
	enforcer  casbin.IEnforcer
	stringify func(v any) string
}

var _ acl.Strategy = (*Strategy)(nil)

// NewStrategy wraps an enforcer.
func NewStrategy(enforcer casbin.IEnforcer, opts ...Option) *Strategy {
	s := &Strategy{
		enforcer:  enforcer,
		stringify: defaultStringify,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Permits reports the enforcer's verdict for the tuple. Enforcement
// errors read as refusals.
func (s *Strategy) Permits(q acl.Query) bool {
	sub, obj, act, ok := s.requestValues(q)
	if !ok {
		return false
	}
	allowed, err := s.enforcer.Enforce(sub, obj, act)
	if err != nil {
		return false
	}
	return allowed
}

// Denies reports whether a deny-effect rule matched the tuple.
func (s *Strategy) Denies(q acl.Query) bool {
	sub, obj, act, ok := s.requestValues(q)
	if !ok {
		return false
	}
	allowed, matched, err := s.enforcer.EnforceEx(sub, obj, act)
	if err != nil || allowed || len(matched) == 0 {
		return false
	}
	return matched[len(matched)-1] == effectDeny
}

func (s *Strategy) requestValues(q acl.Query) (sub, obj, act string, ok bool) {
	if q.Principal == nil || q.Securable == nil || q.Action == nil {
		return "", "", "", false
	}
	return s.stringify(q.Principal), s.stringify(q.Securable), s.stringify(q.Action), true
}

func defaultStringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
