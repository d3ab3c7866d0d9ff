package mysql

import (
	"context"
	"fmt"

	"github.com/kart-io/guard/pkg/component/storage"
	mysqlopts "github.com/kart-io/guard/pkg/options/mysql"
)

// Options is re-exported from pkg/options/mysql for convenience.
type Options = mysqlopts.Options

// NewOptions is re-exported from pkg/options/mysql for convenience.
var NewOptions = mysqlopts.NewOptions

// Factory implements the storage.Factory interface for creating MySQL clients.
type Factory struct {
	opts *Options
}

// Compile-time check that Factory implements storage.Factory.
var _ storage.Factory = (*Factory)(nil)

// NewFactory creates a new MySQL client factory with the provided options.
func NewFactory(opts *Options) *Factory {
	return &Factory{
		opts: opts,
	}
}

// Create creates and initializes a new MySQL client.
// Implements storage.Factory interface.
func (f *Factory) Create(ctx context.Context) (storage.Client, error) {
	if f.opts == nil {
		return nil, fmt.Errorf("mysql options cannot be nil")
	}

	client, err := NewWithContext(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql client: %w", err)
	}

	return client, nil
}

// Options returns the MySQL options used by this factory.
func (f *Factory) Options() *Options {
	return f.opts
}

// Clone creates a new factory with a copy of the current options.
func (f *Factory) Clone() *Factory {
	optsCopy := *f.opts
	return &Factory{
		opts: &optsCopy,
	}
}
