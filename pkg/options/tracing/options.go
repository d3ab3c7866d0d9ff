// Package tracing provides distributed tracing configuration options.
package tracing

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/guard/pkg/options"
)

// Supported trace exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

// supportedExporters contains all valid exporter names.
var supportedExporters = map[string]bool{
	ExporterNone:     true,
	ExporterStdout:   true,
	ExporterOTLPGRPC: true,
	ExporterOTLPHTTP: true,
}

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for distributed tracing.
type Options struct {
	// ServiceName identifies this process in exported spans.
	ServiceName string `json:"service-name" mapstructure:"service-name"`

	// Exporter selects the span exporter (none, stdout, otlp-grpc, otlp-http).
	Exporter string `json:"exporter" mapstructure:"exporter"`

	// Endpoint is the OTLP collector address for the otlp exporters.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	Insecure bool `json:"insecure" mapstructure:"insecure"`

	// SampleRatio is the fraction of traces to sample, in [0, 1].
	SampleRatio float64 `json:"sample-ratio" mapstructure:"sample-ratio"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		ServiceName: "guard",
		Exporter:    ExporterNone,
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
		SampleRatio: 1.0,
	}
}

// Enabled reports whether spans should be exported.
func (o *Options) Enabled() bool {
	return o != nil && o.Exporter != "" && o.Exporter != ExporterNone
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error

	if !supportedExporters[o.Exporter] {
		errs = append(errs, fmt.Errorf("tracing.exporter must be one of none, stdout, otlp-grpc, otlp-http, got: %q", o.Exporter))
	}
	if o.Enabled() && o.Exporter != ExporterStdout && o.Endpoint == "" {
		errs = append(errs, fmt.Errorf("tracing.endpoint is required for exporter %q", o.Exporter))
	}
	if o.SampleRatio < 0 || o.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample-ratio must be in [0, 1], got: %v", o.SampleRatio))
	}

	return errs
}

// Complete fills in any fields not set that are required to have valid data.
func (o *Options) Complete() error {
	if o.Exporter == "" {
		o.Exporter = ExporterNone
	}
	if o.ServiceName == "" {
		o.ServiceName = "guard"
	}
	return nil
}

// AddFlags adds flags for tracing options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)

	fs.StringVar(&o.ServiceName, join+"tracing.service-name", o.ServiceName, "Service name reported in spans.")
	fs.StringVar(&o.Exporter, join+"tracing.exporter", o.Exporter, "Trace exporter (none, stdout, otlp-grpc, otlp-http).")
	fs.StringVar(&o.Endpoint, join+"tracing.endpoint", o.Endpoint, "OTLP collector endpoint.")
	fs.BoolVar(&o.Insecure, join+"tracing.insecure", o.Insecure, "Disable TLS for the OTLP connection.")
	fs.Float64Var(&o.SampleRatio, join+"tracing.sample-ratio", o.SampleRatio, "Fraction of traces to sample, in [0, 1].")
}
