package acl

import "testing"

type account struct {
	ID   string
	Name string
}

type numbered struct {
	Id   int
	Note string
}

type badge struct {
	code string
}

func (b badge) Identifies(other any) bool {
	o, ok := other.(badge)
	return ok && o.code == b.code
}

type keyed struct {
	key string
}

func (k *keyed) ID() string { return k.key }

func TestSameIdenticalValues(t *testing.T) {
	u := &account{ID: "u1"}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal strings", "alice", "alice", true},
		{"different strings", "alice", "bob", false},
		{"equal ints", 7, 7, true},
		{"zero values are legitimate", 0, 0, true},
		{"empty strings are legitimate", "", "", true},
		{"same pointer", u, u, true},
		{"int vs int64", 7, int64(7), false},
		{"nil left", nil, "x", false},
		{"nil right", "x", nil, false},
		{"both nil", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSameSurrogateIdentity(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"ID field equal", account{ID: "u1", Name: "a"}, account{ID: "u1", Name: "b"}, true},
		{"ID field differs", account{ID: "u1"}, account{ID: "u2"}, false},
		{"ID via pointers", &account{ID: "u1", Name: "x"}, &account{ID: "u1", Name: "y"}, true},
		{"Id field equal", numbered{Id: 9, Note: "a"}, numbered{Id: 9, Note: "b"}, true},
		{"zero ID does not identify", account{Name: "a"}, account{Name: "a"}, true}, // equal as plain values
		{"zero ID never cross-matches", account{Name: "a"}, account{Name: "b"}, false},
		{"map id equal", map[string]any{"id": "m1", "v": 1}, map[string]any{"id": "m1", "v": 2}, true},
		{"map _id equal", map[string]any{"_id": "m2"}, map[string]any{"_id": "m2", "extra": true}, true},
		{"map id differs", map[string]any{"id": "m1"}, map[string]any{"id": "m3"}, false},
		{"struct and map share id", account{ID: "u1"}, map[string]any{"id": "u1"}, true},
		{"ID method", &keyed{key: "k1"}, &keyed{key: "k1"}, true},
		{"ID method differs", &keyed{key: "k1"}, &keyed{key: "k2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSameIdentifierDelegation(t *testing.T) {
	if !Same(badge{code: "x"}, badge{code: "x"}) {
		t.Error("Identifier claiming other should match")
	}
	if Same(badge{code: "x"}, badge{code: "y"}) {
		t.Error("Identifier rejecting other should not match")
	}
	// Identifier on the right-hand side is consulted too.
	if !Same("anything-with-badge", badgeMatchingAll{}) {
		t.Error("right-hand Identifier should be consulted")
	}
}

type badgeMatchingAll struct{}

func (badgeMatchingAll) Identifies(any) bool { return true }

func TestSameDeepEquality(t *testing.T) {
	a := []string{"r", "w"}
	b := []string{"r", "w"}
	if !Same(a, b) {
		t.Error("deeply equal slices should match")
	}
	if Same(a, []string{"r"}) {
		t.Error("different slices should not match")
	}
}
