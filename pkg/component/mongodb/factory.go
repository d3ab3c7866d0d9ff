package mongodb

import (
	"context"
	"fmt"

	"github.com/kart-io/guard/pkg/component/storage"
	mongoopts "github.com/kart-io/guard/pkg/options/mongodb"
)

// Options is re-exported from pkg/options/mongodb for convenience.
type Options = mongoopts.Options

// NewOptions is re-exported from pkg/options/mongodb for convenience.
var NewOptions = mongoopts.NewOptions

// BuildURI is re-exported from pkg/options/mongodb for convenience.
var BuildURI = mongoopts.BuildURI

// Factory implements the storage.Factory interface for creating MongoDB clients.
type Factory struct {
	opts *Options
}

// Compile-time check that Factory implements storage.Factory.
var _ storage.Factory = (*Factory)(nil)

// NewFactory creates a new MongoDB client factory with the provided options.
func NewFactory(opts *Options) *Factory {
	return &Factory{
		opts: opts,
	}
}

// Create creates and initializes a new MongoDB client.
// Implements storage.Factory interface.
func (f *Factory) Create(ctx context.Context) (storage.Client, error) {
	if f.opts == nil {
		return nil, fmt.Errorf("mongodb options cannot be nil")
	}

	client, err := NewWithContext(ctx, f.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongodb client: %w", err)
	}

	return client, nil
}

// Options returns the MongoDB options used by this factory.
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
