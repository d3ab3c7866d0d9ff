package tracing

import (
	"context"
	"errors"
	"testing"

	tracingopts "github.com/kart-io/guard/pkg/options/tracing"
)

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Tracer("test") == nil {
		t.Fatal("expected a tracer from the disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestNewProviderStdout(t *testing.T) {
	opts := tracingopts.NewOptions()
	opts.Exporter = tracingopts.ExporterStdout

	p, err := NewProvider(context.Background(), opts)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	}()

	ctx, span := StartSpan(context.Background(), "test-tracer", "test-span")
	if got := TraceIDFromContext(ctx); got == "" {
		t.Error("expected a trace ID inside a recording span")
	}
	SetSpanOK(ctx)
	span.End()

	if err := p.ForceFlush(context.Background()); err != nil {
		t.Errorf("ForceFlush: %v", err)
	}
}

func TestNewProviderRejectsUnknownExporter(t *testing.T) {
	opts := tracingopts.NewOptions()
	opts.Exporter = "zipkin"

	if _, err := NewProvider(context.Background(), opts); err == nil {
		t.Fatal("expected an error for an unknown exporter")
	}
}

func TestNewProviderRejectsBadSampleRatio(t *testing.T) {
	opts := tracingopts.NewOptions()
	opts.SampleRatio = 1.5

	if _, err := NewProvider(context.Background(), opts); err == nil {
		t.Fatal("expected an error for a sample ratio above 1")
	}
}

func TestRecordErrorTolerates(t *testing.T) {
	// No span in context and a nil error must both be safe.
	RecordError(context.Background(), nil)
	RecordError(context.Background(), errors.New("boom"))
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty trace ID, got %q", got)
	}
}

func TestNilProviderIsSafe(t *testing.T) {
	var p *Provider
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown on nil provider: %v", err)
	}
	if err := p.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush on nil provider: %v", err)
	}
	if p.Tracer("x") == nil {
		t.Fatal("expected fallback tracer from nil provider")
	}
}
