package adapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/todo-app/backend/internal/application/adapter"
)

// otelInstrumentation implements adapter.Instrumentation with OpenTelemetry spans.
type otelInstrumentation struct {
	tracer trace.Tracer
}

// NewOtelInstrumentation creates an Instrumentation backed by tracer.
func NewOtelInstrumentation(tracer trace.Tracer) adapter.Instrumentation {
	return &otelInstrumentation{tracer: tracer}
}

// StartSpan runs fn inside a span named opts.Name. A failing fn marks the span as errored.
func (i *otelInstrumentation) StartSpan(ctx context.Context, opts adapter.SpanOptions, fn func(ctx context.Context) error) error {
	attrs := make([]attribute.KeyValue, 0, len(opts.Attributes)+1)
	if opts.Op != "" {
		attrs = append(attrs, attribute.String("op", opts.Op))
	}
	for k, v := range opts.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	ctx, span := i.tracer.Start(ctx, opts.Name, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
