package options

import "testing"

func TestJoin(t *testing.T) {
	tests := []struct {
		name     string
		prefixes []string
		want     string
	}{
		{"empty", nil, ""},
		{"single", []string{"mysql"}, "mysql."},
		{"multiple", []string{"server", "mysql"}, "server.mysql."},
		{"empty string prefix", []string{""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.prefixes...); got != tt.want {
				t.Errorf("Join(%v) = %q, want %q", tt.prefixes, got, tt.want)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("s3cret"); got != RedactedPassword {
		t.Errorf("Redact(non-empty) = %q, want %q", got, RedactedPassword)
	}
	if got := Redact(""); got != "" {
		t.Errorf("Redact(empty) = %q, want empty", got)
	}
}
