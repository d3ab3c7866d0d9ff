package id

import (
	"sort"
	"sync"
	"testing"
	"time"
)

func TestNewULID(t *testing.T) {
	got := NewULID()
	if len(got) != 26 {
		t.Fatalf("NewULID() length = %d, want 26", len(got))
	}
	if !IsULID(got) {
		t.Errorf("NewULID() produced unparseable ID %q", got)
	}
}

func TestGenerateUnique(t *testing.T) {
	gen := NewULIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.Generate()
		if seen[id] {
			t.Fatalf("duplicate ID %q at iteration %d", id, i)
		}
		seen[id] = true
	}
}

func TestGenerateSortsByCreation(t *testing.T) {
	gen := NewULIDGenerator()
	ids := gen.GenerateN(100)

	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	for i := range ids {
		if ids[i] != sorted[i] {
			t.Fatalf("IDs not in creation order at index %d: %q vs %q", i, ids[i], sorted[i])
		}
	}
}

func TestGenerateN(t *testing.T) {
	gen := NewULIDGenerator()
	ids := gen.GenerateN(10)
	if len(ids) != 10 {
		t.Fatalf("GenerateN(10) returned %d IDs", len(ids))
	}
	for _, id := range ids {
		if !IsULID(id) {
			t.Errorf("GenerateN() produced unparseable ID %q", id)
		}
	}
}

func TestParseULID(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewULID()
	after := time.Now().Add(time.Second)

	ts, err := ParseULID(id)
	if err != nil {
		t.Fatalf("ParseULID(%q) failed: %v", id, err)
	}
	if ts.Before(before) || ts.After(after) {
		t.Errorf("embedded time %v outside expected window [%v, %v]", ts, before, after)
	}

	if _, err := ParseULID("not-a-ulid"); err != ErrInvalidULID {
		t.Errorf("ParseULID(junk) error = %v, want ErrInvalidULID", err)
	}
}

func TestIsULID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"valid", "01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"empty", "", false},
		{"too short", "01ARZ3", false},
		{"invalid chars", "01ARZ3NDEKTSV4RRFFQ69G5FAU!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsULID(tt.in); got != tt.want {
				t.Errorf("IsULID(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConcurrentGenerate(t *testing.T) {
	gen := NewULIDGenerator()

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate ID %q under concurrency", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
