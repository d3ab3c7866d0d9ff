// Package authz provides the authorization service facade for guard.
//
// The acl package renders verdicts as plain booleans; this package wraps a
// list behind the Authorizer interface so transports get a uniform
// (Decision, error) seam: invalid queries fail with ErrInvalidQuery instead
// of silently denying, and every decision carries the reason that settled
// it for audit logs and tracing.
//
// Usage:
//
//	list := acl.NewList().
//		Permit("alice", "report", "read").
//		Deny("mallory", nil, nil)
//
//	authorizer := authz.NewListAuthorizer(list)
//	d, err := authorizer.Authorize(ctx, acl.Query{
//		Principal: "alice", Securable: "report", Action: "read",
//	})
package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/store"
)

// Decision is the transport-facing outcome of an authorization check. The
// scope fields are display labels rendered from the query values; empty
// means the query did not constrain that dimension.
type Decision struct {
	// Allowed is the verdict.
	Allowed bool `json:"allowed"`

	// Reason names the rule category that settled the verdict.
	Reason string `json:"reason,omitempty"`

	// Principal is the principal the decision was rendered for.
	Principal string `json:"principal,omitempty"`

	// Securable is the securable the decision was rendered for.
	Securable string `json:"securable,omitempty"`

	// Action is the action the decision was rendered for.
	Action string `json:"action,omitempty"`
}

// Authorizer renders authorization decisions. Implementations must be safe
// for concurrent use.
type Authorizer interface {
	// Authorize decides a single query. The query must name a principal
	// and an action; ErrInvalidQuery is returned otherwise.
	Authorize(ctx context.Context, q acl.Query) (Decision, error)

	// AuthorizeAll decides an aggregate query: every action must be
	// permitted to at least one principal and no pair may be denied.
	AuthorizeAll(ctx context.Context, m acl.MultiQuery) (Decision, error)
}

// ListAuthorizer answers authorization queries from an access control list.
type ListAuthorizer struct {
	list *acl.List
}

var _ Authorizer = (*ListAuthorizer)(nil)

// NewListAuthorizer wraps list. A nil list yields an authorizer that denies
// everything, backed by a fresh empty list.
func NewListAuthorizer(list *acl.List) *ListAuthorizer {
	if list == nil {
		list = acl.NewList()
	}
	return &ListAuthorizer{list: list}
}

// NewFromStore loads all persisted records into a list and wraps it. Pair
// with a watcher.Reloader to keep the list current after policy changes.
func NewFromStore(ctx context.Context, s store.Store, opts ...acl.ListOption) (*ListAuthorizer, error) {
	list, err := store.Load(ctx, s, store.Wildcard, opts...)
	if err != nil {
		return nil, err
	}
	return NewListAuthorizer(list), nil
}

// List returns the underlying list for policy mutation and reloading.
func (a *ListAuthorizer) List() *acl.List {
	return a.list
}

// Authorize decides the query through the list's explain path, so the
// decision names the category of the entry that settled it.
func (a *ListAuthorizer) Authorize(_ context.Context, q acl.Query) (Decision, error) {
	if q.Principal == nil {
		return Decision{}, errors.ErrInvalidQuery.WithMessage("query principal is required")
	}
	if q.Action == nil {
		return Decision{}, errors.ErrInvalidQuery.WithMessage("query action is required")
	}

	d := a.list.Explain(q)
	return Decision{
		Allowed:   d.Allowed,
		Reason:    d.Reason,
		Principal: label(q.Principal),
		Securable: label(q.Securable),
		Action:    label(q.Action),
	}, nil
}

// AuthorizeAll decides the aggregate query. Denial of any (principal,
// action) pair vetoes the whole request.
func (a *ListAuthorizer) AuthorizeAll(_ context.Context, m acl.MultiQuery) (Decision, error) {
	if len(m.Principals) == 0 {
		return Decision{}, errors.ErrInvalidQuery.WithMessage("query needs at least one principal")
	}
	if len(m.Actions) == 0 {
		return Decision{}, errors.ErrInvalidQuery.WithMessage("query needs at least one action")
	}

	d := Decision{
		Principal: labels(m.Principals),
		Securable: label(m.Securable),
		Action:    labels(m.Actions),
	}
	switch {
	case a.list.DeniesAny(m):
		d.Reason = acl.ReasonDenied
	case a.list.PermitsAll(m):
		d.Allowed = true
		d.Reason = acl.ReasonPermitted
	default:
		d.Reason = acl.ReasonNoPermit
	}
	return d, nil
}

// label renders a scope value for decisions and audit logs. Nil stays
// empty so wildcard queries read as unconstrained.
func label(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}

func labels(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, label(v))
	}
	return strings.Join(parts, ",")
}
