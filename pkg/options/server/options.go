// Package server provides combined server configuration options covering the
// HTTP and gRPC listeners and their shared lifecycle settings.
package server

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/guard/pkg/options"
	grpcopts "github.com/kart-io/guard/pkg/options/server/grpc"
	httpopts "github.com/kart-io/guard/pkg/options/server/http"
)

// Mode selects which listeners a server runs.
type Mode string

const (
	// ModeHTTPOnly runs only the HTTP listener.
	ModeHTTPOnly Mode = "http"
	// ModeGRPCOnly runs only the gRPC listener.
	ModeGRPCOnly Mode = "grpc"
	// ModeBoth runs HTTP and gRPC listeners.
	ModeBoth Mode = "both"
)

// String returns the mode as a string.
func (m Mode) String() string {
	return string(m)
}

var _ options.IOptions = (*Options)(nil)

// Options contains combined server configuration.
type Options struct {
	// Mode selects which listeners to run (http, grpc, both).
	Mode Mode `json:"mode" mapstructure:"mode"`
	// HTTP contains the HTTP listener configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`
	// GRPC contains the gRPC listener configuration.
	GRPC *grpcopts.Options `json:"grpc" mapstructure:"grpc"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// Option is a function that configures Options.
type Option func(*Options)

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Mode:            ModeHTTPOnly,
		HTTP:            httpopts.NewOptions(),
		GRPC:            grpcopts.NewOptions(),
		ShutdownTimeout: 10 * time.Second,
	}
}

// EnableHTTP reports whether the HTTP listener should run.
func (o *Options) EnableHTTP() bool {
	return o.Mode == ModeHTTPOnly || o.Mode == ModeBoth
}

// EnableGRPC reports whether the gRPC listener should run.
func (o *Options) EnableGRPC() bool {
	return o.Mode == ModeGRPCOnly || o.Mode == ModeBoth
}

// AddFlags adds flags for server options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)

	fs.StringVar((*string)(&o.Mode), join+"server.mode", string(o.Mode), "Server mode (http, grpc, both).")
	fs.DurationVar(&o.ShutdownTimeout, join+"server.shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")

	o.HTTP.AddFlags(fs, prefixes...)
	o.GRPC.AddFlags(fs, prefixes...)
}

// Validate validates the server options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	switch o.Mode {
	case ModeHTTPOnly, ModeGRPCOnly, ModeBoth:
	default:
		errs = append(errs, fmt.Errorf("server.mode must be one of http, grpc, both, got: %q", o.Mode))
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown-timeout must be positive"))
	}

	if o.EnableHTTP() {
		errs = append(errs, o.HTTP.Validate()...)
	}
	if o.EnableGRPC() {
		errs = append(errs, o.GRPC.Validate()...)
	}

	return errs
}

// Complete completes the server options with defaults.
func (o *Options) Complete() error {
	if o.HTTP == nil {
		o.HTTP = httpopts.NewOptions()
	}
	if o.GRPC == nil {
		o.GRPC = grpcopts.NewOptions()
	}
	return nil
}

// WithMode sets the server mode.
func WithMode(mode Mode) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// WithHTTPOptions sets the HTTP listener options.
func WithHTTPOptions(opts *httpopts.Options) Option {
	return func(o *Options) {
		o.HTTP = opts
	}
}

// WithGRPCOptions sets the gRPC listener options.
func WithGRPCOptions(opts *grpcopts.Options) Option {
	return func(o *Options) {
		o.GRPC = opts
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = d
	}
}

// ApplyOptions applies the given options to the Options.
func (o *Options) ApplyOptions(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}
