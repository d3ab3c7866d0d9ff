package acl

import (
	"sync"
)

// List is an ordered access control list guarding one securable. The zero
// value is an empty, usable list.
//
// Locking discipline: decision queries and snapshots take the read lock,
// mutations take the write lock. Entries are immutable, so a snapshot
// returned by Entries can be evaluated without any lock.
type List struct {
	mu      sync.RWMutex
	entries []*Entry
	same    Sameness
}

// ListOption configures a List during construction.
type ListOption func(*List)

// WithListSameness sets the sameness test handed to entries the List
// constructs in Secure and its specializations.
func WithListSameness(same Sameness) ListOption {
	return func(l *List) {
		if same != nil {
			l.same = same
		}
	}
}

// NewList creates an empty list.
func NewList(opts ...ListOption) *List {
	l := &List{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rule names a strategy and the scope to secure it for. Nil scope fields
// are wildcards, exactly as on an Entry.
type Rule struct {
	Strategy  Strategy
	Principal any
	Securable any
	Action    any
}

// MultiQuery is the aggregate decision form: every action must be permitted
// to at least one of the principals, and no (principal, action) pair may be
// denied.
type MultiQuery struct {
	Principals []any
	Actions    []any
	Securable  any
	Data       any
}

func (l *List) sameness() Sameness {
	if l.same != nil {
		return l.same
	}
	return Same
}

// candidates returns entries with any bearing on the request: applying to
// at least one requested principal, at least one requested action, and the
// securable. Callers must hold at least the read lock.
func (l *List) candidates(m MultiQuery) []*Entry {
	out := make([]*Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if !e.AppliesToSecurable(m.Securable) {
			continue
		}
		if !appliesToAny(e.AppliesToPrincipal, m.Principals) {
			continue
		}
		if !appliesToAny(e.AppliesToAction, m.Actions) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func appliesToAny(applies func(any) bool, values []any) bool {
	for _, v := range values {
		if applies(v) {
			return true
		}
	}
	return false
}

// PermitsAll reports whether every requested action is permitted. A request
// with no principals or no actions is denied, as is one where any
// applicable entry denies any (principal, action) pair. Denial always
// overrides permission, and anything not explicitly permitted is denied.
func (l *List) PermitsAll(m MultiQuery) bool {
	if len(m.Principals) == 0 || len(m.Actions) == 0 {
		return false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	candidates := l.candidates(m)
	if l.vetoed(candidates, m) {
		return false
	}

	for _, action := range m.Actions {
		satisfied := false
		for _, e := range candidates {
			for _, principal := range m.Principals {
				if e.Permits(Query{Principal: principal, Securable: m.Securable, Action: action, Data: m.Data}) {
					satisfied = true
					break
				}
			}
			if satisfied {
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// DeniesAny reports whether any applicable entry denies any requested
// (principal, action) pair. An empty request denies nothing.
func (l *List) DeniesAny(m MultiQuery) bool {
	if len(m.Principals) == 0 || len(m.Actions) == 0 {
		return false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.vetoed(l.candidates(m), m)
}

// vetoed scans entries for a denial of any (principal, action) pair,
// stopping at the first hit. Callers must hold at least the read lock.
func (l *List) vetoed(entries []*Entry, m MultiQuery) bool {
	for _, e := range entries {
		for _, principal := range m.Principals {
			for _, action := range m.Actions {
				if e.Denies(Query{Principal: principal, Securable: m.Securable, Action: action, Data: m.Data}) {
					return true
				}
			}
		}
	}
	return false
}

// Permits reports whether the single query is permitted.
func (l *List) Permits(q Query) bool {
	return l.PermitsAll(MultiQuery{
		Principals: []any{q.Principal},
		Actions:    []any{q.Action},
		Securable:  q.Securable,
		Data:       q.Data,
	})
}

// Denies reports whether the single query is denied by some entry.
func (l *List) Denies(q Query) bool {
	return l.DeniesAny(MultiQuery{
		Principals: []any{q.Principal},
		Actions:    []any{q.Action},
		Securable:  q.Securable,
		Data:       q.Data,
	})
}

// locate returns the index of the first entry matching the rule through the
// applicability predicates, or -1. An entry whose wildcards cover the rule
// counts as a match, so securing a rule already covered by a broader entry
// of the same strategy is a no-op. A nil rule field matches only entries
// with that field unset. Callers must hold the write lock.
func (l *List) locate(r Rule) int {
	for i, e := range l.entries {
		if !e.AppliesToStrategy(r.Strategy) {
			continue
		}
		if !e.AppliesToPrincipal(r.Principal) {
			continue
		}
		if !e.AppliesToAction(r.Action) {
			continue
		}
		if r.Securable != nil && !e.AppliesToSecurable(r.Securable) {
			continue
		}
		return i
	}
	return -1
}

// Secure idempotently ensures an entry for the rule exists. When an entry
// already matches the rule nothing changes; otherwise a new entry is
// appended in order. Returns ErrInvalidStrategy when the rule's strategy
// cannot render decisions.
func (l *List) Secure(r Rule) error {
	if err := validateStrategy(r.Strategy); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locate(r) >= 0 {
		return nil
	}

	e, err := NewEntry(r.Strategy,
		ForPrincipal(r.Principal),
		ForSecurable(r.Securable),
		ForAction(r.Action),
		WithSameness(l.sameness()),
	)
	if err != nil {
		return err
	}
	l.entries = append(l.entries, e)
	return nil
}

// Unsecure idempotently removes the entry matching the rule, if any.
func (l *List) Unsecure(r Rule) error {
	if err := validateStrategy(r.Strategy); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.locate(r); i >= 0 {
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
	}
	return nil
}

// Permit ensures a Permit-strategy entry for the scope exists. The built-in
// strategy cannot fail validation, so Permit returns the list for chaining.
func (l *List) Permit(principal, securable, action any) *List {
	_ = l.Secure(Rule{Strategy: Permit, Principal: principal, Securable: securable, Action: action})
	return l
}

// Unpermit removes the Permit-strategy entry matching the scope, if any.
func (l *List) Unpermit(principal, securable, action any) *List {
	_ = l.Unsecure(Rule{Strategy: Permit, Principal: principal, Securable: securable, Action: action})
	return l
}

// Deny ensures a Deny-strategy entry for the scope exists.
func (l *List) Deny(principal, securable, action any) *List {
	_ = l.Secure(Rule{Strategy: Deny, Principal: principal, Securable: securable, Action: action})
	return l
}

// Undeny removes the Deny-strategy entry matching the scope, if any.
func (l *List) Undeny(principal, securable, action any) *List {
	_ = l.Unsecure(Rule{Strategy: Deny, Principal: principal, Securable: securable, Action: action})
	return l
}

// Add appends an entry without the dedup check Secure performs. Use it to
// stack multiple entries carrying custom strategies for the same scope.
// Nil entries are ignored.
func (l *List) Add(e *Entry) *List {
	if e == nil {
		return l
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return l
}

// Remove deletes the first occurrence of exactly this entry. Entries are
// matched by identity, not by scope.
func (l *List) Remove(e *Entry) *List {
	if e == nil {
		return l
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, have := range l.entries {
		if have == e {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			break
		}
	}
	return l
}

// SetEntries atomically replaces the list contents with a copy of entries,
// skipping nils. Watchers use it to swap in a freshly loaded policy set.
func (l *List) SetEntries(entries []*Entry) *List {
	cp := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			cp = append(cp, e)
		}
	}
	l.mu.Lock()
	l.entries = cp
	l.mu.Unlock()
	return l
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a snapshot copy of the entries in order.
func (l *List) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]*Entry, len(l.entries))
	copy(cp, l.entries)
	return cp
}

// Decision records the outcome of a single query together with the entry
// that settled it. Entry is nil when nothing applied.
type Decision struct {
	Allowed bool
	Reason  string
	Entry   *Entry
}

// Decision reasons.
const (
	ReasonDenied    = "denied by matching entry"
	ReasonPermitted = "permitted by matching entry"
	ReasonNoPermit  = "no entry permits the request"
)

// Explain renders the single-query decision and names the entry that
// settled it: the first denying entry on a veto, the first permitting entry
// on success.
func (l *List) Explain(q Query) Decision {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.Denies(q) {
			return Decision{Allowed: false, Reason: ReasonDenied, Entry: e}
		}
	}
	for _, e := range l.entries {
		if e.Permits(q) {
			return Decision{Allowed: true, Reason: ReasonPermitted, Entry: e}
		}
	}
	return Decision{Allowed: false, Reason: ReasonNoPermit}
}

// Replay secures rules in order, failing on the first invalid one. Loaders
// use it to rebuild a list from persisted policy.
func (l *List) Replay(rules []Rule) error {
	for _, r := range rules {
		if err := l.Secure(r); err != nil {
			return err
		}
	}
	return nil
}
