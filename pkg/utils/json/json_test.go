package json

import (
	"bytes"
	"strings"
	"testing"
)

type policyDoc struct {
	ID        string   `json:"id"`
	Effect    string   `json:"effect"`
	Principal string   `json:"principal,omitempty"`
	Actions   []string `json:"actions,omitempty"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := policyDoc{ID: "01J0", Effect: "permit", Principal: "alice", Actions: []string{"read", "update"}}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !Valid(data) {
		t.Fatal("Marshal() produced invalid JSON")
	}

	var out policyDoc
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if out.ID != in.ID || out.Effect != in.Effect || len(out.Actions) != 2 {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(policyDoc{ID: "01J0", Effect: "deny"}, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent() failed: %v", err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Error("MarshalIndent() produced no line breaks")
	}
	if !Valid(data) {
		t.Error("MarshalIndent() produced invalid JSON")
	}
}

func TestValid(t *testing.T) {
	if !Valid([]byte(`{"effect":"permit"}`)) {
		t.Error("Valid() rejected well-formed JSON")
	}
	if Valid([]byte(`{"effect":`)) {
		t.Error("Valid() accepted truncated JSON")
	}
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(policyDoc{ID: "01J1", Effect: "permit"}); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	var out policyDoc
	if err := NewDecoder(&buf).Decode(&out); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if out.ID != "01J1" || out.Effect != "permit" {
		t.Errorf("decode mismatch: got %+v", out)
	}
}
