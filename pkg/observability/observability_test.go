package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestStartExportSpan(t *testing.T) {
	recorder := withRecorder(t)

	_, span := StartExportSpan(context.Background(), "orders", "orders_col", true)
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanExport, spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "orders", attrs["export.name"])
	assert.Equal(t, "orders_col", attrs["db.mongodb.collection"])
	assert.Equal(t, "true", attrs["export.incremental"])
}

func TestTraceFunc_RecordsError(t *testing.T) {
	recorder := withRecorder(t)

	err := TraceFunc(context.Background(), SpanTestConnection, func(ctx context.Context) error {
		return errors.New("no reachable servers")
	})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "no reachable servers", spans[0].Status().Description)
}

func TestInitTracing(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	cfg := DefaultTracingConfig("test")
	cfg.Writer = &buf
	cfg.BatchTimeout = time.Millisecond

	shutdown, err := InitTracing(cfg)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "unit")
	EndSpan(span, nil)

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"unit"`)
}
