package acl

// Entry pairs a decision strategy with the scope it applies to. A scope
// field left unset is a wildcard matching any value in that dimension.
// Entries are immutable once constructed; changing scope means removing the
// entry from its list and adding a new one.
type Entry struct {
	strategy  Strategy
	principal any
	securable any
	action    any
	same      Sameness
}

// EntryOption configures an Entry during construction.
type EntryOption func(*Entry)

// ForPrincipal scopes the entry to the given principal.
func ForPrincipal(principal any) EntryOption {
	return func(e *Entry) {
		e.principal = principal
	}
}

// ForSecurable scopes the entry to the given securable.
func ForSecurable(securable any) EntryOption {
	return func(e *Entry) {
		e.securable = securable
	}
}

// ForAction scopes the entry to the given action.
func ForAction(action any) EntryOption {
	return func(e *Entry) {
		e.action = action
	}
}

// WithSameness replaces the default sameness test for this entry's scope
// comparisons.
func WithSameness(same Sameness) EntryOption {
	return func(e *Entry) {
		if same != nil {
			e.same = same
		}
	}
}

// NewEntry builds an immutable entry around the given strategy. Scope
// fields not set through options are wildcards. Returns ErrInvalidStrategy
// when the strategy cannot render decisions.
func NewEntry(s Strategy, opts ...EntryOption) (*Entry, error) {
	if err := validateStrategy(s); err != nil {
		return nil, err
	}
	e := &Entry{strategy: s, same: Same}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Permitting builds an entry around the built-in Permit strategy.
func Permitting(opts ...EntryOption) *Entry {
	e, _ := NewEntry(Permit, opts...)
	return e
}

// Denying builds an entry around the built-in Deny strategy.
func Denying(opts ...EntryOption) *Entry {
	e, _ := NewEntry(Deny, opts...)
	return e
}

// Strategy returns the entry's strategy.
func (e *Entry) Strategy() Strategy { return e.strategy }

// Principal returns the entry's principal scope, nil for wildcard.
func (e *Entry) Principal() any { return e.principal }

// Securable returns the entry's securable scope, nil for wildcard.
func (e *Entry) Securable() any { return e.securable }

// Action returns the entry's action scope, nil for wildcard.
func (e *Entry) Action() any { return e.action }

// AppliesToPrincipal reports whether the entry constrains decisions about
// the given principal. An unset entry principal applies to every principal;
// a set one applies only to the same principal, and never to nil.
func (e *Entry) AppliesToPrincipal(principal any) bool {
	if e.principal == nil {
		return true
	}
	return principal != nil && e.same(e.principal, principal)
}

// AppliesToSecurable reports whether the entry constrains decisions about
// the given securable.
func (e *Entry) AppliesToSecurable(securable any) bool {
	if e.securable == nil {
		return true
	}
	return securable != nil && e.same(e.securable, securable)
}

// AppliesToAction reports whether the entry constrains decisions about the
// given action.
func (e *Entry) AppliesToAction(action any) bool {
	if e.action == nil {
		return true
	}
	return action != nil && e.same(e.action, action)
}

// AppliesToStrategy reports whether the entry carries the given strategy,
// compared with the entry's sameness test. Built-in strategies compare by
// identity.
func (e *Entry) AppliesToStrategy(s Strategy) bool {
	if s == nil {
		return false
	}
	return e.same(e.strategy, s)
}

// AppliesTo reports whether the entry has any bearing on decisions about
// the given principal, securable, and action.
func (e *Entry) AppliesTo(principal, securable, action any) bool {
	return e.AppliesToPrincipal(principal) &&
		e.AppliesToSecurable(securable) &&
		e.AppliesToAction(action)
}

// Permits reports whether this entry allows the query: the entry must
// apply, and its strategy must permit without denying.
func (e *Entry) Permits(q Query) bool {
	if !e.AppliesTo(q.Principal, q.Securable, q.Action) {
		return false
	}
	return !e.strategy.Denies(q) && e.strategy.Permits(q)
}

// Denies reports whether this entry vetoes the query: the entry must apply
// and its strategy must deny.
func (e *Entry) Denies(q Query) bool {
	return e.AppliesTo(q.Principal, q.Securable, q.Action) && e.strategy.Denies(q)
}
