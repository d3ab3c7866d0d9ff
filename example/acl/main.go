// Package main demonstrates the core access control list: securing rules,
// asking single questions, and explaining how a decision was reached.
package main

import (
	"fmt"

	"github.com/kart-io/guard/pkg/acl"
)

func main() {
	// Build a list. A nil scope field is a wildcard, so the deny below
	// covers mallory on every securable and action.
	list := acl.NewList().
		Permit("alice", "orders", "read").
		Permit("auditor", nil, "read").
		Deny("mallory", nil, nil)

	fmt.Printf("entries secured: %d\n\n", list.Len())

	// Example 1: direct questions.
	queries := []acl.Query{
		{Principal: "alice", Securable: "orders", Action: "read"},
		{Principal: "alice", Securable: "orders", Action: "delete"},
		{Principal: "auditor", Securable: "invoices", Action: "read"},
		{Principal: "mallory", Securable: "orders", Action: "read"},
	}
	for _, q := range queries {
		fmt.Printf("permits %v/%v/%v = %v\n", q.Principal, q.Securable, q.Action, list.Permits(q))
	}

	// Example 2: Explain returns the reason and the settling entry.
	d := list.Explain(acl.Query{Principal: "mallory", Securable: "orders", Action: "read"})
	fmt.Printf("\nmallory explained: allowed=%v reason=%q\n", d.Allowed, d.Reason)

	d = list.Explain(acl.Query{Principal: "bob", Securable: "orders", Action: "read"})
	fmt.Printf("bob explained: allowed=%v reason=%q\n", d.Allowed, d.Reason)

	// Example 3: aggregate questions. Every action must be permitted to at
	// least one principal, and a single deny vetoes the lot.
	m := acl.MultiQuery{
		Principals: []any{"bob", "auditor"},
		Securable:  "invoices",
		Actions:    []any{"read"},
	}
	fmt.Printf("\nbob+auditor read invoices = %v\n", list.PermitsAll(m) && !list.DeniesAny(m))

	// Example 4: revoking a rule restores the default answer, which is no.
	list.Unpermit("alice", "orders", "read")
	fmt.Printf("after unpermit, alice reads orders = %v\n",
		list.Permits(acl.Query{Principal: "alice", Securable: "orders", Action: "read"}))
}
