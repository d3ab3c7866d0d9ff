package acl

import (
	"strings"
	"testing"
)

type document struct {
	ID    string
	Title string
}

func TestNewEntryDefaultsToWildcards(t *testing.T) {
	e, err := NewEntry(Permit)
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}

	if e.Principal() != nil || e.Securable() != nil || e.Action() != nil {
		t.Error("unset scope fields should be nil")
	}
	if !e.AppliesTo("anyone", document{ID: "d"}, ActionDelete) {
		t.Error("all-wildcard entry should apply to anything")
	}
}

func TestEntryScopeAccessors(t *testing.T) {
	doc := &document{ID: "d1"}
	e, err := NewEntry(Deny,
		ForPrincipal("alice"),
		ForSecurable(doc),
		ForAction(ActionUpdate),
	)
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}

	if e.Strategy() != Deny {
		t.Error("Strategy() did not return the deny strategy")
	}
	if e.Principal() != "alice" {
		t.Errorf("Principal() = %v", e.Principal())
	}
	if e.Securable() != any(doc) {
		t.Errorf("Securable() = %v", e.Securable())
	}
	if e.Action() != ActionUpdate {
		t.Errorf("Action() = %v", e.Action())
	}
}

func TestAppliesToPrincipal(t *testing.T) {
	scoped := Permitting(ForPrincipal("alice"))
	wildcard := Permitting()

	tests := []struct {
		name      string
		entry     *Entry
		principal any
		want      bool
	}{
		{"scoped matches same", scoped, "alice", true},
		{"scoped rejects other", scoped, "bob", false},
		{"scoped rejects nil", scoped, nil, false},
		{"wildcard matches anyone", wildcard, "bob", true},
		{"wildcard matches nil", wildcard, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.AppliesToPrincipal(tt.principal); got != tt.want {
				t.Errorf("AppliesToPrincipal(%v) = %v, want %v", tt.principal, got, tt.want)
			}
		})
	}
}

func TestAppliesToSecurableBySurrogateID(t *testing.T) {
	e := Permitting(ForSecurable(document{ID: "d1", Title: "draft"}))

	if !e.AppliesToSecurable(document{ID: "d1", Title: "renamed"}) {
		t.Error("entry should apply to securable with same ID")
	}
	if e.AppliesToSecurable(document{ID: "d2", Title: "draft"}) {
		t.Error("entry should not apply to securable with different ID")
	}
}

func TestZeroValueScopeIsNotWildcard(t *testing.T) {
	e := Permitting(ForAction(""))

	if e.Action() == nil {
		t.Fatal("empty-string action should be stored, not treated as unset")
	}
	if !e.AppliesToAction("") {
		t.Error("entry scoped to \"\" should apply to \"\"")
	}
	if e.AppliesToAction(ActionRead) {
		t.Error("entry scoped to \"\" should not apply to other actions")
	}

	zero := Permitting(ForPrincipal(0))
	if zero.AppliesToPrincipal(1) {
		t.Error("entry scoped to 0 should not apply to 1")
	}
	if !zero.AppliesToPrincipal(0) {
		t.Error("entry scoped to 0 should apply to 0")
	}
}

func TestAppliesToStrategy(t *testing.T) {
	p := Permitting(ForPrincipal("alice"))

	if !p.AppliesToStrategy(Permit) {
		t.Error("permit entry should match Permit strategy")
	}
	if p.AppliesToStrategy(Deny) {
		t.Error("permit entry should not match Deny strategy")
	}
	if p.AppliesToStrategy(nil) {
		t.Error("nil strategy should never match")
	}

	custom := &StrategyFuncs{
		PermitsFunc: func(Query) bool { return true },
		DeniesFunc:  func(Query) bool { return false },
	}
	e, err := NewEntry(custom)
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}
	if !e.AppliesToStrategy(custom) {
		t.Error("custom strategy should match itself by identity")
	}
	if e.AppliesToStrategy(Permit) {
		t.Error("custom strategy should not match Permit")
	}
}

func TestEntryPermitsAndDenies(t *testing.T) {
	doc := document{ID: "d1"}
	permit := Permitting(ForPrincipal("alice"), ForSecurable(doc), ForAction(ActionRead))
	deny := Denying(ForPrincipal("alice"), ForSecurable(doc))

	read := Query{Principal: "alice", Securable: doc, Action: ActionRead}
	if !permit.Permits(read) {
		t.Error("permit entry should permit matching query")
	}
	if permit.Denies(read) {
		t.Error("permit entry should not deny")
	}

	if !deny.Denies(read) {
		t.Error("deny entry should deny matching query")
	}
	if deny.Permits(read) {
		t.Error("deny entry should not permit")
	}

	otherDoc := Query{Principal: "alice", Securable: document{ID: "d2"}, Action: ActionRead}
	if permit.Permits(otherDoc) {
		t.Error("entry should not permit query outside its scope")
	}
	if deny.Denies(otherDoc) {
		t.Error("entry should not deny query outside its scope")
	}
}

func TestNonApplicableEntryIsNeutral(t *testing.T) {
	e := Denying(ForPrincipal("bob"))
	q := Query{Principal: "alice", Action: ActionRead}

	if e.Permits(q) || e.Denies(q) {
		t.Error("entry that does not apply must neither permit nor deny")
	}
}

func TestEntryCustomSameness(t *testing.T) {
	// Case-insensitive principals.
	fold := func(a, b any) bool {
		as, aok := a.(string)
		bs, bok := b.(string)
		if aok && bok {
			return strings.EqualFold(as, bs)
		}
		return Same(a, b)
	}

	e, err := NewEntry(Permit, ForPrincipal("Alice"), WithSameness(fold))
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}

	if !e.AppliesToPrincipal("alice") {
		t.Error("custom sameness should fold case")
	}
	if e.AppliesToPrincipal("bob") {
		t.Error("custom sameness matched unrelated principal")
	}
}
