// Package observability provides tracing for export runs
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName identifies the extractor in traces
const ServiceName = "mongoextract"

// Span names
const (
	SpanExport         = "mongodb.export"
	SpanTestConnection = "mongodb.test_connection"
)

// Tracer returns the extractor tracer from the global provider. Without
// InitTracing it is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(ServiceName)
}

// StartExportSpan starts the span wrapping one export run
func StartExportSpan(ctx context.Context, export, collection string, incremental bool) (context.Context, trace.Span) {
	return Tracer().Start(ctx, SpanExport,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("export.name", export),
			attribute.String("db.mongodb.collection", collection),
			attribute.Bool("export.incremental", incremental),
		),
	)
}

// StartSpan starts a span with attributes
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records the outcome and ends the span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceFunc runs fn inside a span named name
func TraceFunc(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, name, attrs...)
	err := fn(ctx)
	EndSpan(span, err)
	return err
}
