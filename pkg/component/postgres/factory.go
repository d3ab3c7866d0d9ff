package postgres

import (
	"context"
	"fmt"

	"github.com/kart-io/guard/pkg/component/storage"
	postgresopts "github.com/kart-io/guard/pkg/options/postgres"
)

// Options is re-exported from pkg/options/postgres for convenience.
type Options = postgresopts.Options

// NewOptions is re-exported from pkg/options/postgres for convenience.
var NewOptions = postgresopts.NewOptions

// Factory implements the storage.Factory interface for creating PostgreSQL clients.
type Factory struct {
	opts *Options
}

// Compile-time check that Factory implements storage.Factory.
var _ storage.Factory = (*Factory)(nil)

// NewFactory creates a new PostgreSQL client factory with the provided options.
func NewFactory(opts *Options) *Factory {
	return &Factory{
		opts: opts,
	}
}

// Create creates and initializes a new PostgreSQL client.
// Implements storage.Factory interface.
func (f *Factory) Create(ctx context.Context) (storage.Client, error) {
	if f.opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}

	client, err := NewWithContext(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres client: %w", err)
	}

	return client, nil
}

// Options returns the PostgreSQL options used by this factory.
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
