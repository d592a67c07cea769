package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for one instrumentation scope.
type Tracer interface {
	// StartSpanFromContext starts a child of the span in ctx, if any.
	StartSpanFromContext(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, Span)
}

type scopedTracer struct {
	scope string
}

// NewTracer returns a tracer for scope. The provider is looked up on every
// span so a provider installed after construction is still used.
func NewTracer(scope string) Tracer {
	return scopedTracer{scope: scope}
}

func (t scopedTracer) StartSpanFromContext(
	ctx context.Context, name string, attrs ...attribute.KeyValue,
) (context.Context, Span) {
	ctx, span := otel.Tracer(t.scope).Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, NewSpan(span)
}
