package authz

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/tracing"
)

const tracerName = "github.com/kart-io/guard/pkg/authz"

// TracingAuthorizer decorates an Authorizer with an OpenTelemetry span per
// decision. Spans carry the verdict and reason; failed decisions mark the
// span as errored.
type TracingAuthorizer struct {
	next Authorizer
}

var _ Authorizer = (*TracingAuthorizer)(nil)

// NewTracingAuthorizer wraps next.
func NewTracingAuthorizer(next Authorizer) *TracingAuthorizer {
	return &TracingAuthorizer{next: next}
}

// Authorize decides the query inside a guard.authorize span.
func (a *TracingAuthorizer) Authorize(ctx context.Context, q acl.Query) (Decision, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "guard.authorize")
	defer span.End()

	d, err := a.next.Authorize(ctx, q)
	if err != nil {
		tracing.RecordError(ctx, err)
		return d, err
	}
	span.SetAttributes(decisionAttributes(d)...)
	return d, nil
}

// AuthorizeAll decides the aggregate query inside a guard.authorize_all
// span.
func (a *TracingAuthorizer) AuthorizeAll(ctx context.Context, m acl.MultiQuery) (Decision, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "guard.authorize_all")
	defer span.End()

	d, err := a.next.AuthorizeAll(ctx, m)
	if err != nil {
		tracing.RecordError(ctx, err)
		return d, err
	}
	span.SetAttributes(decisionAttributes(d)...)
	return d, nil
}

func decisionAttributes(d Decision) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool("guard.allowed", d.Allowed),
		attribute.String("guard.reason", d.Reason),
		attribute.String("guard.principal", d.Principal),
		attribute.String("guard.securable", d.Securable),
		attribute.String("guard.action", d.Action),
	}
}
