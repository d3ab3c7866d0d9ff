// Package acl implements an ordered access control list engine with
// deny-overrides semantics.
//
// A List guards one securable resource. Each Entry in the list pairs a
// decision Strategy with an optional principal, securable, and action scope;
// a scope field left unset is a wildcard that matches anything. Decisions
// are rendered synchronously and fail closed.
//
// The decision flow for a request naming principals, actions, and a
// securable:
//  1. Entries that do not apply to the request are ignored.
//  2. Any applicable entry denying any (principal, action) pair vetoes the
//     whole request.
//  3. Otherwise every requested action must be permitted by some applicable
//     entry for some principal.
//  4. Anything not explicitly permitted is denied.
//
// Principals, securables, and actions are opaque values. Whether two values
// name the same thing is decided by a Sameness test; the default recognizes
// identical values, shared surrogate identifiers (ID method, ID field, or
// id/_id map entry), and types implementing Identifier.
//
// Usage:
//
//	doc := &Document{ID: "doc-7"}
//	list := acl.NewList()
//
//	// Alice may read and update, everyone may reference, Bob is banned.
//	list.Permit(alice, doc, acl.ActionRead).
//	    Permit(alice, doc, acl.ActionUpdate).
//	    Permit(nil, doc, acl.ActionReference).
//	    Deny(bob, doc, nil)
//
//	ok := list.Permits(acl.Query{Principal: alice, Securable: doc, Action: acl.ActionRead})
//
// A List is safe for concurrent use: queries and snapshots take a read
// lock, mutations take the write lock. All evaluation happens on the
// caller's goroutine.
package acl
