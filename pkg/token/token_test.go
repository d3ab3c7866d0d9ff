package token

import (
	"testing"
	"time"

	"github.com/kart-io/guard/pkg/errors"
	jwtopts "github.com/kart-io/guard/pkg/options/jwt"
)

const testKey = "test-signing-key-0123456789abcdef-pad"

func testManager(t *testing.T) *Manager {
	t.Helper()
	opts := jwtopts.NewOptions()
	opts.Key = testKey
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestManagerSignParse(t *testing.T) {
	m := testManager(t)

	raw, err := m.Sign("user-123", WithRoles("admin", "auditor"), WithExtra(map[string]interface{}{"team": "core"}))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	p, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Subject != "user-123" {
		t.Errorf("Subject = %q, want user-123", p.Subject)
	}
	if len(p.Roles) != 2 || p.Roles[0] != "admin" || p.Roles[1] != "auditor" {
		t.Errorf("Roles = %v, want [admin auditor]", p.Roles)
	}
	if p.Extra["team"] != "core" {
		t.Errorf("Extra[team] = %v, want core", p.Extra["team"])
	}
}

func TestManagerSignRejectsEmptySubject(t *testing.T) {
	m := testManager(t)
	if _, err := m.Sign(""); !errors.IsCode(err, errors.ErrInvalidParam.Code) {
		t.Fatalf("expected ErrInvalidParam, got %v", err)
	}
}

func TestManagerParseRejectsEmpty(t *testing.T) {
	m := testManager(t)
	if _, err := m.Parse(""); !errors.IsCode(err, errors.ErrInvalidToken.Code) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManagerParseRejectsMalformed(t *testing.T) {
	m := testManager(t)
	if _, err := m.Parse("not-a-jwt"); !errors.IsCode(err, errors.ErrInvalidToken.Code) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManagerParseRejectsWrongKey(t *testing.T) {
	m := testManager(t)
	raw, err := m.Sign("user-123")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	opts := jwtopts.NewOptions()
	opts.Key = "another-signing-key-0123456789abcdef"
	other, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := other.Parse(raw); !errors.IsCode(err, errors.ErrInvalidToken.Code) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManagerParseRejectsExpired(t *testing.T) {
	m := testManager(t)
	raw, err := m.Sign("user-123", WithTTL(-time.Minute))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := m.Parse(raw); !errors.IsCode(err, errors.ErrTokenExpired.Code) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	opts := jwtopts.NewOptions()
	opts.Key = "short"
	if _, err := New(opts); err == nil {
		t.Fatal("expected an error for a key below the minimum length")
	}
}

func TestNewDisabledSkipsKeyValidation(t *testing.T) {
	opts := jwtopts.NewOptions()
	opts.DisableAuth = true
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !m.Disabled() {
		t.Fatal("expected the manager to report disabled")
	}
}

func TestPrincipalPrincipals(t *testing.T) {
	tests := []struct {
		name      string
		principal *Principal
		want      int
	}{
		{name: "nil principal", principal: nil, want: 0},
		{name: "subject only", principal: &Principal{Subject: "alice"}, want: 1},
		{name: "subject and roles", principal: &Principal{Subject: "alice", Roles: []string{"admin", "auditor"}}, want: 3},
		{name: "empty role skipped", principal: &Principal{Subject: "alice", Roles: []string{""}}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.principal.Principals()
			if len(got) != tt.want {
				t.Fatalf("len(Principals()) = %d, want %d", len(got), tt.want)
			}
			if tt.want > 0 && got[0] != "alice" {
				t.Errorf("Principals()[0] = %v, want the subject first", got[0])
			}
		})
	}
}
