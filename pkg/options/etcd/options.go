// Package etcd provides etcd configuration options.
package etcd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/guard/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for Etcd.
type Options struct {
	Endpoints      []string      `json:"endpoints" mapstructure:"endpoints"`
	Username       string        `json:"username" mapstructure:"username"`
	Password       string        `json:"-" mapstructure:"password"` // Excluded from JSON serialization
	DialTimeout    time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`
	LeaseTTL       int64         `json:"lease-ttl" mapstructure:"lease-ttl"`
}

// optionsForJSON is used for JSON marshaling with password redacted.
type optionsForJSON struct {
	Endpoints      []string      `json:"endpoints"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	DialTimeout    time.Duration `json:"dial-timeout"`
	RequestTimeout time.Duration `json:"request-timeout"`
	LeaseTTL       int64         `json:"lease-ttl"`
}

// MarshalJSON implements json.Marshaler with password redaction.
// This prevents accidental password exposure in logs or debug output.
func (o *Options) MarshalJSON() ([]byte, error) {
	return json.Marshal(optionsForJSON{
		Endpoints:      o.Endpoints,
		Username:       o.Username,
		Password:       options.Redact(o.Password),
		DialTimeout:    o.DialTimeout,
		RequestTimeout: o.RequestTimeout,
		LeaseTTL:       o.LeaseTTL,
	})
}

// String returns a string representation with password redacted.
// Safe for logging and debugging.
func (o *Options) String() string {
	return fmt.Sprintf("Etcd{endpoints=%v, user=%s, password=%s}",
		o.Endpoints, o.Username, options.Redact(o.Password))
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Endpoints:      []string{"127.0.0.1:2379"},
		Username:       "",
		Password:       "",
		DialTimeout:    5 * time.Second,
		RequestTimeout: 2 * time.Second,
		LeaseTTL:       60,
	}
}

// Complete fills in any fields not set that are required to have valid data.
// The password falls back to the ETCD_PASSWORD environment variable.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("ETCD_PASSWORD")
	}

	return nil
}

// Validate checks if the options are valid.
// This method is idempotent and has no side effects.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if len(o.Endpoints) == 0 {
		errs = append(errs, fmt.Errorf("etcd.endpoints cannot be empty"))
	}
	if o.DialTimeout <= 0 {
		errs = append(errs, fmt.Errorf("etcd.dial-timeout must be positive"))
	}

	return errs
}

// AddFlags adds flags for Etcd options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)

	fs.StringSliceVar(&o.Endpoints, join+"etcd.endpoints", o.Endpoints, "Etcd endpoints.")
	fs.StringVar(&o.Username, join+"etcd.username", o.Username, "Etcd username.")
	fs.StringVar(&o.Password, join+"etcd.password", o.Password, "Etcd password (DEPRECATED: use ETCD_PASSWORD env var instead).")
	fs.DurationVar(&o.DialTimeout, join+"etcd.dial-timeout", o.DialTimeout, "Etcd dial timeout.")
	fs.DurationVar(&o.RequestTimeout, join+"etcd.request-timeout", o.RequestTimeout, "Etcd request timeout.")
	fs.Int64Var(&o.LeaseTTL, join+"etcd.lease-ttl", o.LeaseTTL, "Etcd lease TTL.")
}
