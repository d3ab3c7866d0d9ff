// Package tracing bootstraps the OpenTelemetry tracer provider for guard
// and offers small helpers for span management. Configuration comes from
// pkg/options/tracing; a disabled exporter yields a provider whose spans
// are never exported, so callers can install tracing unconditionally.
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	tracingopts "github.com/kart-io/guard/pkg/options/tracing"
)

// Provider manages the tracer provider lifecycle.
type Provider struct {
	tp   *sdktrace.TracerProvider
	opts *tracingopts.Options
}

// NewProvider builds a tracer provider from the options and installs it as
// the global provider together with the W3C trace-context propagator. When
// the exporter is "none" the provider records nothing and exports nothing.
func NewProvider(ctx context.Context, opts *tracingopts.Options) (*Provider, error) {
	if opts == nil {
		opts = tracingopts.NewOptions()
	}
	if err := opts.Complete(); err != nil {
		return nil, err
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}

	if !opts.Enabled() {
		return &Provider{tp: sdktrace.NewTracerProvider(), opts: opts}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp, opts: opts}, nil
}

// Tracer returns a tracer scoped to name from this provider.
func (p *Provider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p == nil || p.tp == nil {
		return otel.Tracer(name, opts...)
	}
	return p.tp.Tracer(name, opts...)
}

// Shutdown flushes pending spans and releases exporter resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// ForceFlush exports all ended spans that have not yet been exported.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.ForceFlush(ctx)
}

func newExporter(ctx context.Context, opts *tracingopts.Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case tracingopts.ExporterOTLPGRPC:
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(grpcOpts...))
	case tracingopts.ExporterOTLPHTTP:
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracehttp.NewClient(httpOpts...))
	case tracingopts.ExporterStdout:
		return stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithWriter(os.Stdout),
		)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", opts.Exporter)
	}
}
