package redistore

import (
	"context"
	"testing"
	"time"

	"github.com/kart-io/guard/pkg/store"
)

var _ store.Store = (*Store)(nil)

func TestRecordKeyEscapesSecurable(t *testing.T) {
	tests := []struct {
		name      string
		securable string
		want      string
	}{
		{"plain", "report", "guard:acl:report:01X"},
		{"wildcard", "", "guard:acl::01X"},
		{"colon", "db:report", "guard:acl:db%3Areport:01X"},
		{"glob chars", "a*b?c", "guard:acl:a%2Ab%3Fc:01X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recordKey(DefaultKeyPrefix, tt.securable, "01X"); got != tt.want {
				t.Fatalf("recordKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPatterns(t *testing.T) {
	if got := allPattern("guard:acl"); got != "guard:acl:*" {
		t.Fatalf("allPattern = %q", got)
	}
	if got := scopePattern("guard:acl", "report"); got != "guard:acl:report:*" {
		t.Fatalf("scopePattern = %q", got)
	}
	if got := scopePattern("guard:acl", ""); got != "guard:acl::*" {
		t.Fatalf("wildcard scopePattern = %q", got)
	}
	if got := idPattern("guard:acl", "01X"); got != "guard:acl:*:01X" {
		t.Fatalf("idPattern = %q", got)
	}
}

func TestKeyID(t *testing.T) {
	key := recordKey(DefaultKeyPrefix, "db:report", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if got := keyID(key); got != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Fatalf("keyID = %q", got)
	}
	if got := keyID("nocolons"); got != "" {
		t.Fatalf("keyID without separator = %q", got)
	}
}

func TestHashRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	r := &store.Record{
		ID:        "01X",
		Effect:    store.EffectDeny,
		Principal: "mallory",
		Securable: "",
		Action:    "read",
		CreatedAt: now,
		UpdatedAt: now,
	}

	got := toHash(r).record()
	if *got != *r {
		t.Fatalf("round trip changed the record: %+v != %+v", got, r)
	}
}

func TestNewRejectsNilClient(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestOptions(t *testing.T) {
	s := &Store{prefix: DefaultKeyPrefix, channel: DefaultChannel}

	WithKeyPrefix("tenant:acl")(s)
	WithChannel("tenant:acl:update")(s)
	if s.prefix != "tenant:acl" || s.channel != "tenant:acl:update" {
		t.Fatalf("options not applied: %q %q", s.prefix, s.channel)
	}

	// Empty values keep the defaults.
	WithKeyPrefix("")(s)
	WithChannel("")(s)
	if s.prefix != "tenant:acl" || s.channel != "tenant:acl:update" {
		t.Fatal("empty option values must not reset configuration")
	}

	var published []string
	WithPublish(func(_ context.Context, payload string) error {
		published = append(published, payload)
		return nil
	})(s)
	if err := s.publish(context.Background(), "rev-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(published) != 1 || published[0] != "rev-1" {
		t.Fatalf("publish override not used: %v", published)
	}

	WithoutPublish()(s)
	if err := s.publish(context.Background(), "rev-2"); err != nil {
		t.Fatalf("disabled publish should be a no-op, got %v", err)
	}
	if len(published) != 1 {
		t.Fatal("disabled publish must not deliver")
	}
}
