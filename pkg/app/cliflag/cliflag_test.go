package cliflag

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestFlagSetCreatesOnce(t *testing.T) {
	var nfs NamedFlagSets

	first := nfs.FlagSet("http")
	second := nfs.FlagSet("http")
	if first != second {
		t.Error("FlagSet returned a new set for an existing name")
	}
	if len(nfs.Order) != 1 {
		t.Errorf("Order has %d entries, want 1", len(nfs.Order))
	}
}

func TestOrderIsStable(t *testing.T) {
	var nfs NamedFlagSets

	nfs.FlagSet("http").String("addr", "", "")
	nfs.FlagSet("log").String("level", "", "")
	nfs.FlagSet("http")

	want := []string{"http", "log"}
	if len(nfs.Order) != len(want) {
		t.Fatalf("Order = %v, want %v", nfs.Order, want)
	}
	for i, name := range want {
		if nfs.Order[i] != name {
			t.Errorf("Order[%d] = %q, want %q", i, nfs.Order[i], name)
		}
	}
}

func TestAddTo(t *testing.T) {
	var nfs NamedFlagSets
	nfs.FlagSet("http").String("addr", ":8080", "")
	nfs.FlagSet("log").String("level", "info", "")

	target := pflag.NewFlagSet("all", pflag.ContinueOnError)
	nfs.AddTo(target)

	for _, name := range []string{"addr", "level"} {
		if target.Lookup(name) == nil {
			t.Errorf("flag %q not registered on target", name)
		}
	}
}
