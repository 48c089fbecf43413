package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func TestInitialize_DisabledStillPropagates(t *testing.T) {
	cfg := DefaultConfig("shipping")
	cfg.Enabled = false

	tp, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))

	_, provider := newRecorder()
	ctx, span := provider.Tracer("test").Start(context.Background(), "request")
	defer span.End()

	carrier := MapCarrier{}
	InjectTraceContext(ctx, carrier)
	require.Contains(t, carrier.Keys(), "traceparent")

	extracted := ExtractTraceContext(context.Background(), carrier)
	assert.Equal(t, TraceID(ctx), TraceID(extracted))
}

func TestProvider_NilShutdown(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestTracedOperation_RecordsStatus(t *testing.T) {
	rec, provider := newRecorder()
	tracer := provider.Tracer("test")

	v, err := TracedOperation(context.Background(), tracer, "quote", func(ctx context.Context) (int, error) {
		assert.NotEmpty(t, TraceID(ctx))
		return 7, nil
	}, CarrierSpanAttributes("Ship Logic", "quote-rates", "")...)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = TracedOperation(context.Background(), tracer, "create", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}, CarrierSpanAttributes("Ship Logic", "create-shipment", "ord-1")...)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Len(t, spans[0].Attributes(), 2)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Attributes(), 3)
	assert.Len(t, spans[1].Events(), 1)
}

func TestTraceID_EmptyWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}
