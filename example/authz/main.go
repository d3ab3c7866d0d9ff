// Package main demonstrates rendering decisions from a policy store: rules
// are saved as records, loaded into an authorizer, and queried one query
// or one role set at a time.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/utils/json"
)

func main() {
	ctx := context.Background()

	// Seed a store. Wildcard fields leave that dimension unconstrained.
	st := store.NewMemoryStore()
	defer func() { _ = st.Close() }()

	records := []*store.Record{
		{Effect: store.EffectPermit, Principal: "alice", Securable: "orders", Action: "read"},
		{Effect: store.EffectPermit, Principal: "auditor", Securable: store.Wildcard, Action: "read"},
		{Effect: store.EffectDeny, Principal: "mallory", Securable: store.Wildcard, Action: store.Wildcard},
	}
	for _, r := range records {
		if err := st.Save(ctx, r); err != nil {
			log.Fatalf("save record: %v", err)
		}
	}

	authorizer, err := authz.NewFromStore(ctx, st)
	if err != nil {
		log.Fatalf("load authorizer: %v", err)
	}

	// Example 1: a single decision, rendered with its reason.
	d, err := authorizer.Authorize(ctx, acl.Query{Principal: "alice", Securable: "orders", Action: "read"})
	if err != nil {
		log.Fatalf("authorize: %v", err)
	}
	printDecision(d)

	// Example 2: roles act as additional principals. bob carries auditor,
	// so the auditor permit answers for him.
	d, err = authorizer.AuthorizeAll(ctx, acl.MultiQuery{
		Principals: []any{"bob", "auditor"},
		Securable:  "invoices",
		Actions:    []any{"read"},
	})
	if err != nil {
		log.Fatalf("authorize all: %v", err)
	}
	printDecision(d)

	// Example 3: a deny on any carried principal vetoes the whole request.
	d, err = authorizer.AuthorizeAll(ctx, acl.MultiQuery{
		Principals: []any{"mallory", "auditor"},
		Securable:  "invoices",
		Actions:    []any{"read"},
	})
	if err != nil {
		log.Fatalf("authorize all: %v", err)
	}
	printDecision(d)
}

func printDecision(d authz.Decision) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		log.Fatalf("marshal decision: %v", err)
	}
	fmt.Println(string(out))
}
