package guardctl

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	storeopts "github.com/kart-io/guard/pkg/options/store"
	"github.com/kart-io/guard/pkg/store"
	"github.com/kart-io/guard/pkg/utils/json"
)

// executeCommand runs a fresh root command with args and captures output.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewGuardCtlCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"unknown backend", func(o *Options) { o.Store.Backend = "cassandra" }, true},
		{"unknown notifier", func(o *Options) { o.Notifier = "kafka" }, true},
		{"etcd notifier", func(o *Options) { o.Notifier = NotifierEtcd }, false},
		{"unknown output", func(o *Options) { o.Output = "yaml" }, true},
		{"json output", func(o *Options) { o.Output = OutputJSON }, false},
		{"file backend without path", func(o *Options) { o.Store.Backend = storeopts.BackendFile }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.mutate(opts)

			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScopeArgs(t *testing.T) {
	if got := scopeArg("*"); got != store.Wildcard {
		t.Errorf("scopeArg(*) = %q, want wildcard", got)
	}
	if got := scopeArg("orders:42"); got != "orders:42" {
		t.Errorf("scopeArg(orders:42) = %q", got)
	}

	if got := queryArg("*"); got != nil {
		t.Errorf("queryArg(*) = %v, want nil", got)
	}
	if got := queryArg(""); got != nil {
		t.Errorf("queryArg(\"\") = %v, want nil", got)
	}
	if got := queryArg("alice"); got != "alice" {
		t.Errorf("queryArg(alice) = %v", got)
	}
}

func TestPolicyLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.db")
	storeFlags := []string{"--store.backend", "sqlite", "--store.sqlite-path", path}

	permitOut, _, err := executeCommand(t, append([]string{"permit", "alice", "orders:42", "read"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("permit: %v", err)
	}
	if !strings.HasPrefix(permitOut, "permit ") {
		t.Errorf("permit output = %q, want permit <id>", permitOut)
	}

	if _, _, err := executeCommand(t, append([]string{"deny", "mallory", "*", "*"}, storeFlags...)...); err != nil {
		t.Fatalf("deny: %v", err)
	}

	showOut, _, err := executeCommand(t, append([]string{"show"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(showOut, "EFFECT") || !strings.Contains(showOut, "alice") || !strings.Contains(showOut, "mallory") {
		t.Errorf("show output missing rows:\n%s", showOut)
	}

	jsonOut, _, err := executeCommand(t, append([]string{"show", "-o", "json"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("show -o json: %v", err)
	}
	var records []*store.Record
	if err := json.Unmarshal([]byte(jsonOut), &records); err != nil {
		t.Fatalf("show -o json produced invalid JSON: %v\n%s", err, jsonOut)
	}
	if len(records) != 2 {
		t.Fatalf("show -o json returned %d records, want 2", len(records))
	}

	revokeOut, _, err := executeCommand(t, append([]string{"revoke", "alice", "orders:42", "read"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !strings.Contains(revokeOut, "revoked 1 rule(s)") {
		t.Errorf("revoke output = %q", revokeOut)
	}

	revokeOut, _, err = executeCommand(t, append([]string{"revoke", "alice", "orders:42", "read"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if !strings.Contains(revokeOut, "revoked 0 rule(s)") {
		t.Errorf("second revoke output = %q", revokeOut)
	}

	showOut, _, err = executeCommand(t, append([]string{"show"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("show after revoke: %v", err)
	}
	if strings.Contains(showOut, "alice") {
		t.Errorf("revoked rule still listed:\n%s", showOut)
	}
}

func TestShowFiltersBySecurable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.db")
	storeFlags := []string{"--store.backend", "sqlite", "--store.sqlite-path", path}

	if _, _, err := executeCommand(t, append([]string{"permit", "alice", "orders:42", "read"}, storeFlags...)...); err != nil {
		t.Fatalf("permit: %v", err)
	}
	if _, _, err := executeCommand(t, append([]string{"permit", "bob", "reports", "read"}, storeFlags...)...); err != nil {
		t.Fatalf("permit: %v", err)
	}

	out, _, err := executeCommand(t, append([]string{"show", "orders:42"}, storeFlags...)...)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "alice") || strings.Contains(out, "bob") {
		t.Errorf("show orders:42 = %q, want only the orders rule", out)
	}
}

func TestRootRejectsInvalidOptions(t *testing.T) {
	if _, _, err := executeCommand(t, "show", "--store.backend", "cassandra"); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, _, err := executeCommand(t, "show", "--output", "yaml"); err == nil {
		t.Error("expected error for unknown output format")
	}
	if _, _, err := executeCommand(t, "check", "alice"); err == nil {
		t.Error("expected error for missing arguments")
	}
}
