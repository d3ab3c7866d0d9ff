package acl

import (
	"errors"
	"strings"
	"sync"
	"testing"

	guarderrors "github.com/kart-io/guard/pkg/errors"
)

func TestEmptyListDeniesEverything(t *testing.T) {
	l := NewList()

	if l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionRead}) {
		t.Error("empty list permitted a query")
	}
	if l.PermitsAll(MultiQuery{Principals: []any{"alice"}, Securable: "doc", Actions: []any{ActionRead}}) {
		t.Error("empty list permitted a multi query")
	}
	if l.Denies(Query{Principal: "alice", Securable: "doc", Action: ActionRead}) {
		t.Error("empty list reported an explicit denial")
	}
}

func TestZeroValueListIsUsable(t *testing.T) {
	var l List

	if l.Permits(Query{Principal: "alice", Action: ActionRead}) {
		t.Error("zero value list permitted a query")
	}

	l.Permit("alice", nil, ActionRead)
	if !l.Permits(Query{Principal: "alice", Action: ActionRead}) {
		t.Error("zero value list did not accept a permit")
	}
}

func TestPermitGrantsScopedAccess(t *testing.T) {
	report := document{ID: "r-1", Title: "quarterly"}
	l := NewList().Permit("alice", report, ActionRead)

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"granted scope", Query{Principal: "alice", Securable: report, Action: ActionRead}, true},
		{"other principal", Query{Principal: "bob", Securable: report, Action: ActionRead}, false},
		{"other action", Query{Principal: "alice", Securable: report, Action: ActionUpdate}, false},
		{"other securable", Query{Principal: "alice", Securable: document{ID: "r-2"}, Action: ActionRead}, false},
		{"same securable by id", Query{Principal: "alice", Securable: &document{ID: "r-1"}, Action: ActionRead}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Permits(tt.q); got != tt.want {
				t.Errorf("Permits() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDenyOverridesPermit(t *testing.T) {
	q := Query{Principal: "mallory", Securable: "doc", Action: ActionRead}

	tests := []struct {
		name  string
		build func() *List
	}{
		{
			"deny after permit",
			func() *List {
				return NewList().Permit("mallory", "doc", ActionRead).Deny("mallory", "doc", ActionRead)
			},
		},
		{
			"deny before permit",
			func() *List {
				return NewList().Deny("mallory", "doc", ActionRead).Permit("mallory", "doc", ActionRead)
			},
		},
		{
			"wildcard deny after scoped permit",
			func() *List {
				return NewList().Permit("mallory", "doc", ActionRead).Deny("mallory", nil, nil)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.build()
			if l.Permits(q) {
				t.Error("Permits() = true, want denial to override")
			}
			if !l.Denies(q) {
				t.Error("Denies() = false, want true")
			}
		})
	}
}

func TestWildcardPrincipalPermitsAnyone(t *testing.T) {
	l := NewList().Permit(nil, "handbook", ActionRead)

	for _, principal := range []any{"alice", "bob", 42} {
		if !l.Permits(Query{Principal: principal, Securable: "handbook", Action: ActionRead}) {
			t.Errorf("principal %v not permitted by wildcard entry", principal)
		}
	}
	if l.Permits(Query{Principal: "alice", Securable: "handbook", Action: ActionDelete}) {
		t.Error("wildcard principal entry leaked into another action")
	}
}

func TestDenyForOnePrincipalBlocksGroup(t *testing.T) {
	l := NewList().
		Permit("alice", "doc", ActionRead).
		Permit("eve", "doc", ActionRead).
		Deny("eve", "doc", nil)

	if !l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionRead}) {
		t.Fatal("alice alone should be permitted")
	}

	group := MultiQuery{Principals: []any{"alice", "eve"}, Securable: "doc", Actions: []any{ActionRead}}
	if l.PermitsAll(group) {
		t.Error("PermitsAll() = true with one denied principal in the group")
	}
	if !l.DeniesAny(group) {
		t.Error("DeniesAny() = false, want the denial surfaced")
	}
}

func TestAllActionsMustBePermitted(t *testing.T) {
	l := NewList().Permit("alice", "doc", ActionRead)

	both := MultiQuery{Principals: []any{"alice"}, Securable: "doc", Actions: []any{ActionRead, ActionUpdate}}
	if l.PermitsAll(both) {
		t.Error("PermitsAll() = true with one unpermitted action")
	}

	l.Permit("alice", "doc", ActionUpdate)
	if !l.PermitsAll(both) {
		t.Error("PermitsAll() = false after permitting both actions")
	}
}

func TestAnyPermittedPrincipalSatisfiesAction(t *testing.T) {
	l := NewList().Permit("alice", "doc", ActionRead)

	// One permitted principal in the group is enough for the action as
	// long as nobody in the group is denied.
	group := MultiQuery{Principals: []any{"alice", "bob"}, Securable: "doc", Actions: []any{ActionRead}}
	if !l.PermitsAll(group) {
		t.Error("PermitsAll() = false, want one permitted principal to satisfy the action")
	}
}

func TestEmptyQueryComponents(t *testing.T) {
	l := NewList().Permit(nil, nil, nil).Deny("eve", nil, nil)

	tests := []struct {
		name string
		m    MultiQuery
	}{
		{"no principals", MultiQuery{Actions: []any{ActionRead}}},
		{"no actions", MultiQuery{Principals: []any{"alice"}}},
		{"nothing", MultiQuery{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if l.PermitsAll(tt.m) {
				t.Error("PermitsAll() = true for empty request")
			}
			if l.DeniesAny(tt.m) {
				t.Error("DeniesAny() = true for empty request")
			}
		})
	}
}

func TestUnpermitRestoresDenial(t *testing.T) {
	l := NewList().Permit("alice", "doc", ActionRead)
	q := Query{Principal: "alice", Securable: "doc", Action: ActionRead}

	if !l.Permits(q) {
		t.Fatal("setup: permit not in effect")
	}

	l.Unpermit("alice", "doc", ActionRead)
	if l.Permits(q) {
		t.Error("Permits() = true after Unpermit")
	}

	// Removing an absent rule is a no-op.
	l.Unpermit("alice", "doc", ActionRead)
	if got := l.Len(); got != 0 {
		t.Errorf("Len() = %d after double Unpermit, want 0", got)
	}
}

func TestUndenyLiftsVeto(t *testing.T) {
	l := NewList().Permit("alice", "doc", ActionRead).Deny("alice", "doc", ActionRead)
	q := Query{Principal: "alice", Securable: "doc", Action: ActionRead}

	if l.Permits(q) {
		t.Fatal("setup: veto not in effect")
	}

	l.Undeny("alice", "doc", ActionRead)
	if !l.Permits(q) {
		t.Error("Permits() = false after Undeny, want the permit to stand")
	}
}

func TestSecureIsIdempotent(t *testing.T) {
	l := NewList().
		Permit("alice", "doc", ActionRead).
		Permit("alice", "doc", ActionRead)

	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d after duplicate Permit, want 1", got)
	}

	r := Rule{Strategy: Deny, Principal: "eve"}
	if err := l.Secure(r); err != nil {
		t.Fatalf("Secure() failed: %v", err)
	}
	if err := l.Secure(r); err != nil {
		t.Fatalf("Secure() failed on repeat: %v", err)
	}
	if got := l.Len(); got != 2 {
		t.Errorf("Len() = %d after duplicate Secure, want 2", got)
	}
}

func TestSecureRejectsInvalidStrategy(t *testing.T) {
	l := NewList()

	err := l.Secure(Rule{Strategy: nil, Principal: "alice"})
	if !errors.Is(err, guarderrors.ErrInvalidStrategy) {
		t.Errorf("Secure(nil strategy) error = %v, want ErrInvalidStrategy", err)
	}
	if err := l.Unsecure(Rule{Strategy: StrategyFunc(nil)}); !errors.Is(err, guarderrors.ErrInvalidStrategy) {
		t.Errorf("Unsecure(nil func) error = %v, want ErrInvalidStrategy", err)
	}
	if got := l.Len(); got != 0 {
		t.Errorf("Len() = %d after rejected rules, want 0", got)
	}
}

func TestWildcardEntryCoversScopedRules(t *testing.T) {
	l := NewList().Permit(nil, "doc", ActionRead)

	// The wildcard entry already covers the scoped rule, so securing it
	// changes nothing.
	l.Permit("alice", "doc", ActionRead)
	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d after securing a covered rule, want 1", got)
	}

	// Removing the scoped rule locates the covering entry and drops it.
	l.Unpermit("alice", "doc", ActionRead)
	if got := l.Len(); got != 0 {
		t.Errorf("Len() = %d after unsecuring through coverage, want 0", got)
	}
	if l.Permits(Query{Principal: "bob", Securable: "doc", Action: ActionRead}) {
		t.Error("wildcard permit survived removal")
	}
}

func TestNilRuleFieldMatchesOnlyWildcardEntries(t *testing.T) {
	l := NewList().
		Permit("alice", "doc", ActionRead).
		Permit("alice", "doc", nil)

	if got := l.Len(); got != 2 {
		t.Fatalf("Len() = %d, want the scoped and wildcard entries distinct", got)
	}

	// A nil action in the rule matches only the entry with no action scope.
	l.Unpermit("alice", "doc", nil)
	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d after removing the wildcard entry, want 1", got)
	}
	if !l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionRead}) {
		t.Error("scoped entry should survive removal of the wildcard entry")
	}
	if l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionDelete}) {
		t.Error("wildcard entry still in effect after removal")
	}
}

func TestChainingReturnsSameList(t *testing.T) {
	l := NewList()
	if got := l.Permit("a", "s", ActionRead).Deny("b", "s", nil).Unpermit("a", "s", ActionRead).Undeny("b", "s", nil); got != l {
		t.Error("chained calls returned a different list")
	}
	if got := l.Add(Permitting()).Remove(nil).SetEntries(nil); got != l {
		t.Error("entry-level calls returned a different list")
	}
}

func TestAddStacksEntriesWithoutDedup(t *testing.T) {
	owner := &StrategyFuncs{
		PermitsFunc: func(q Query) bool { return q.Principal == "owner" },
		DeniesFunc:  func(Query) bool { return false },
	}
	audited := &StrategyFuncs{
		PermitsFunc: func(q Query) bool { return q.Data != nil },
		DeniesFunc:  func(Query) bool { return false },
	}

	l := NewList().
		Add(Permitting(ForSecurable("doc"), ForAction(ActionRead))).
		Add(Permitting(ForSecurable("doc"), ForAction(ActionRead)))
	if got := l.Len(); got != 2 {
		t.Errorf("Len() = %d after stacking identical scopes, want 2", got)
	}

	e1, err := NewEntry(owner, ForSecurable("doc"))
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}
	e2, err := NewEntry(audited, ForSecurable("doc"))
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}
	l.Add(e1).Add(e2)
	if got := l.Len(); got != 4 {
		t.Errorf("Len() = %d after adding custom strategies, want 4", got)
	}

	// Either custom strategy can carry the decision.
	if !l.Permits(Query{Principal: "owner", Securable: "doc", Action: ActionUpdate}) {
		t.Error("owner strategy did not permit")
	}
	if !l.Permits(Query{Principal: "guest", Securable: "doc", Action: ActionUpdate, Data: "traced"}) {
		t.Error("audited strategy did not permit")
	}
}

func TestRemoveMatchesByIdentity(t *testing.T) {
	e1 := Permitting(ForPrincipal("alice"), ForAction(ActionRead))
	e2 := Permitting(ForPrincipal("alice"), ForAction(ActionRead))

	l := NewList().Add(e1).Add(e2)
	if got := l.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	l.Remove(e1)
	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d after Remove, want 1", got)
	}
	if got := l.Entries()[0]; got != e2 {
		t.Error("Remove() deleted the wrong entry")
	}

	// Removing an entry that is no longer present is a no-op.
	l.Remove(e1)
	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d after repeated Remove, want 1", got)
	}
}

func TestSetEntriesReplacesContents(t *testing.T) {
	l := NewList().Permit("alice", "doc", ActionRead)

	fresh := []*Entry{
		Permitting(ForPrincipal("bob"), ForAction(ActionUpdate)),
		nil,
		Denying(ForPrincipal("eve")),
	}
	l.SetEntries(fresh)

	if got := l.Len(); got != 2 {
		t.Errorf("Len() = %d after SetEntries, want nils skipped and 2 kept", got)
	}
	if l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionRead}) {
		t.Error("old entry survived SetEntries")
	}
	if !l.Permits(Query{Principal: "bob", Securable: "doc", Action: ActionUpdate}) {
		t.Error("new entry not in effect after SetEntries")
	}

	// The list copies the slice, so caller mutations do not leak in.
	fresh[0] = nil
	if got := l.Len(); got != 2 {
		t.Errorf("Len() = %d after caller mutation, want 2", got)
	}
}

func TestEntriesReturnsSnapshot(t *testing.T) {
	l := NewList().Permit("alice", "doc", ActionRead).Deny("eve", "doc", nil)

	snap := l.Entries()
	if len(snap) != 2 {
		t.Fatalf("Entries() returned %d entries, want 2", len(snap))
	}

	snap[0] = nil
	if got := l.Len(); got != 2 {
		t.Errorf("Len() = %d after mutating the snapshot, want 2", got)
	}
	if !l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionRead}) {
		t.Error("mutating the snapshot changed list behavior")
	}
}

func TestExplain(t *testing.T) {
	l := NewList().
		Permit("alice", "doc", ActionRead).
		Deny("eve", "doc", nil)

	permitted := l.Explain(Query{Principal: "alice", Securable: "doc", Action: ActionRead})
	if !permitted.Allowed || permitted.Reason != ReasonPermitted {
		t.Errorf("Explain(permitted) = %+v", permitted)
	}
	if permitted.Entry == nil || !permitted.Entry.AppliesToPrincipal("alice") {
		t.Error("Explain(permitted) did not attribute the permitting entry")
	}

	denied := l.Explain(Query{Principal: "eve", Securable: "doc", Action: ActionRead})
	if denied.Allowed || denied.Reason != ReasonDenied {
		t.Errorf("Explain(denied) = %+v", denied)
	}
	if denied.Entry == nil || !denied.Entry.AppliesToPrincipal("eve") {
		t.Error("Explain(denied) did not attribute the denying entry")
	}

	unmatched := l.Explain(Query{Principal: "carol", Securable: "doc", Action: ActionRead})
	if unmatched.Allowed || unmatched.Reason != ReasonNoPermit {
		t.Errorf("Explain(unmatched) = %+v", unmatched)
	}
	if unmatched.Entry != nil {
		t.Error("Explain(unmatched) attributed an entry to a default denial")
	}
}

func TestExplainScansDenialsFirst(t *testing.T) {
	// The permit entry comes first in insertion order but the denial must
	// still win the attribution.
	l := NewList().Permit("eve", "doc", ActionRead).Deny("eve", nil, nil)

	d := l.Explain(Query{Principal: "eve", Securable: "doc", Action: ActionRead})
	if d.Allowed {
		t.Fatal("Explain() allowed a vetoed query")
	}
	if d.Reason != ReasonDenied {
		t.Errorf("Reason = %q, want %q", d.Reason, ReasonDenied)
	}
	if d.Entry == nil || d.Entry.Strategy() != Deny {
		t.Error("attribution went to the wrong entry")
	}
}

func TestReplay(t *testing.T) {
	rules := []Rule{
		{Strategy: Permit, Principal: "alice", Securable: "doc", Action: ActionRead},
		{Strategy: Permit, Securable: "handbook", Action: ActionRead},
		{Strategy: Deny, Principal: "eve"},
	}

	l := NewList()
	if err := l.Replay(rules); err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if got := l.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if !l.Permits(Query{Principal: "bob", Securable: "handbook", Action: ActionRead}) {
		t.Error("replayed wildcard permit not in effect")
	}
	if !l.Denies(Query{Principal: "eve", Securable: "doc", Action: ActionRead}) {
		t.Error("replayed denial not in effect")
	}
}

func TestReplayStopsAtFirstInvalidRule(t *testing.T) {
	rules := []Rule{
		{Strategy: Permit, Principal: "alice", Securable: "doc", Action: ActionRead},
		{Strategy: nil, Principal: "bob"},
		{Strategy: Permit, Principal: "carol", Securable: "doc", Action: ActionRead},
	}

	l := NewList()
	err := l.Replay(rules)
	if !errors.Is(err, guarderrors.ErrInvalidStrategy) {
		t.Fatalf("Replay() error = %v, want ErrInvalidStrategy", err)
	}
	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d, want rules before the failure applied", got)
	}
	if l.Permits(Query{Principal: "carol", Securable: "doc", Action: ActionRead}) {
		t.Error("rule after the failure was applied")
	}
}

func TestListSamenessFlowsIntoEntries(t *testing.T) {
	fold := func(a, b any) bool {
		as, aok := a.(string)
		bs, bok := b.(string)
		if aok && bok {
			return strings.EqualFold(as, bs)
		}
		return Same(a, b)
	}

	l := NewList(WithListSameness(fold)).Permit("Alice", "Doc", ActionRead)

	if !l.Permits(Query{Principal: "alice", Securable: "DOC", Action: ActionRead}) {
		t.Error("list sameness did not reach the created entry")
	}
	if l.Permits(Query{Principal: "alicia", Securable: "doc", Action: ActionRead}) {
		t.Error("folded sameness matched an unrelated principal")
	}

	// Idempotence also folds: the rule differs only by case.
	l.Permit("ALICE", "doc", ActionRead)
	if got := l.Len(); got != 1 {
		t.Errorf("Len() = %d after case-folded duplicate, want 1", got)
	}
}

func TestQueryDataReachesStrategies(t *testing.T) {
	quota := &StrategyFuncs{
		PermitsFunc: func(q Query) bool {
			n, ok := q.Data.(int)
			return ok && n < 100
		},
		DeniesFunc: func(q Query) bool {
			n, ok := q.Data.(int)
			return ok && n >= 100
		},
	}

	l := NewList()
	if err := l.Secure(Rule{Strategy: quota, Securable: "bucket"}); err != nil {
		t.Fatalf("Secure() failed: %v", err)
	}

	if !l.Permits(Query{Principal: "alice", Securable: "bucket", Action: ActionCreate, Data: 10}) {
		t.Error("under-quota request denied")
	}
	if l.Permits(Query{Principal: "alice", Securable: "bucket", Action: ActionCreate, Data: 250}) {
		t.Error("over-quota request permitted")
	}
	if !l.Denies(Query{Principal: "alice", Securable: "bucket", Action: ActionCreate, Data: 250}) {
		t.Error("over-quota request not reported as denied")
	}
}

func TestConcurrentAccess(t *testing.T) {
	l := NewList().Permit("alice", "doc", ActionRead)

	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 200; j++ {
				l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionRead})
				l.Explain(Query{Principal: "eve", Securable: "doc", Action: ActionRead})
				l.Entries()
				l.Len()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for j := 0; j < 200; j++ {
			l.Permit("bob", "doc", ActionUpdate)
			l.Deny("eve", "doc", nil)
			l.Unpermit("bob", "doc", ActionUpdate)
			l.Undeny("eve", "doc", nil)
		}
	}()

	close(start)
	wg.Wait()

	if !l.Permits(Query{Principal: "alice", Securable: "doc", Action: ActionRead}) {
		t.Error("stable entry lost during concurrent mutation")
	}
}
