// Package middleware provides configuration options for the HTTP middleware
// chain.
package middleware

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/guard/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the middleware chain a server installs in front of its
// handlers. Recovery and request ID tagging are always on; the remaining
// middlewares are tuned or switched here.
type Options struct {
	// RequestIDHeader is the header the request ID is read from and echoed on.
	RequestIDHeader string `json:"request-id-header" mapstructure:"request-id-header"`

	// LoggerSkipPaths lists paths excluded from request logging.
	LoggerSkipPaths []string `json:"logger-skip-paths" mapstructure:"logger-skip-paths"`

	// Timeout is the per-request deadline. Zero disables it.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// TimeoutSkipPaths lists paths excluded from the request deadline.
	TimeoutSkipPaths []string `json:"timeout-skip-paths" mapstructure:"timeout-skip-paths"`

	// EnableCORS turns on cross origin resource sharing headers.
	EnableCORS bool `json:"enable-cors" mapstructure:"enable-cors"`

	// CORSAllowOrigins lists origins allowed when CORS is enabled.
	CORSAllowOrigins []string `json:"cors-allow-origins" mapstructure:"cors-allow-origins"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		RequestIDHeader:  "X-Request-ID",
		LoggerSkipPaths:  []string{"/healthz", "/metrics"},
		Timeout:          30 * time.Second,
		EnableCORS:       false,
		CORSAllowOrigins: []string{"*"},
	}
}

// AddFlags adds flags for middleware options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)

	fs.StringVar(&o.RequestIDHeader, join+"middleware.request-id-header", o.RequestIDHeader, "Header the request ID is read from and echoed on.")
	fs.StringSliceVar(&o.LoggerSkipPaths, join+"middleware.logger-skip-paths", o.LoggerSkipPaths, "Paths excluded from request logging.")
	fs.DurationVar(&o.Timeout, join+"middleware.timeout", o.Timeout, "Per-request deadline, 0 disables it.")
	fs.StringSliceVar(&o.TimeoutSkipPaths, join+"middleware.timeout-skip-paths", o.TimeoutSkipPaths, "Paths excluded from the request deadline.")
	fs.BoolVar(&o.EnableCORS, join+"middleware.enable-cors", o.EnableCORS, "Send CORS headers and answer preflight requests.")
	fs.StringSliceVar(&o.CORSAllowOrigins, join+"middleware.cors-allow-origins", o.CORSAllowOrigins, "Origins allowed when CORS is enabled.")
}

// Validate validates the middleware options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if o.Timeout < 0 {
		errs = append(errs, fmt.Errorf("middleware.timeout cannot be negative"))
	}
	if o.EnableCORS && len(o.CORSAllowOrigins) == 0 {
		errs = append(errs, fmt.Errorf("middleware.cors-allow-origins cannot be empty when CORS is enabled"))
	}

	return errs
}

// Complete completes the middleware options with defaults.
func (o *Options) Complete() error {
	if o.RequestIDHeader == "" {
		o.RequestIDHeader = "X-Request-ID"
	}
	return nil
}
