package mysql

import (
	"strings"
	"testing"

	"github.com/kart-io/guard/pkg/component/storage"
)

func TestClientImplementsStorageInterface(_ *testing.T) {
	var _ storage.Client = (*Client)(nil)
}

func TestFactoryImplementsStorageFactory(_ *testing.T) {
	var _ storage.Factory = (*Factory)(nil)
}

func TestBuildDSN(t *testing.T) {
	opts := &Options{
		Host:     "localhost",
		Port:     3306,
		Username: "root",
		Password: "secret",
		Database: "guard",
	}

	dsn := BuildDSN(opts)
	want := "root:secret@tcp(localhost:3306)/guard?charset=utf8mb4&parseTime=True&loc=Local"
	if dsn != want {
		t.Errorf("BuildDSN() = %q, want %q", dsn, want)
	}
}

func TestBuildDSNEscapesPassword(t *testing.T) {
	opts := &Options{
		Host:     "localhost",
		Port:     3306,
		Username: "root",
		Password: "p@ss/word:1",
		Database: "guard",
	}

	dsn := BuildDSN(opts)

	if strings.Contains(dsn, "p@ss/word:1") {
		t.Errorf("password should be escaped in DSN: %q", dsn)
	}
	if !strings.Contains(dsn, "p%40ss%2Fword%3A1") {
		t.Errorf("expected escaped password in DSN: %q", dsn)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil options")
	}

	opts := NewOptions()
	opts.Database = ""
	if _, err := New(opts); err == nil {
		t.Error("expected error for empty database")
	}
}
