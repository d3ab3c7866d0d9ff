package mongodb

import (
	"testing"

	"github.com/kart-io/guard/pkg/component/storage"
)

func TestClientImplementsStorageInterface(_ *testing.T) {
	var _ storage.Client = (*Client)(nil)
}

func TestFactoryImplementsStorageFactory(_ *testing.T) {
	var _ storage.Factory = (*Factory)(nil)
}

func TestNewRejectsNilOptions(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil options")
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := NewOptions()
	opts.URI = ""
	opts.Host = ""

	if _, err := New(opts); err == nil {
		t.Error("expected error when neither uri nor host is set")
	}
}
