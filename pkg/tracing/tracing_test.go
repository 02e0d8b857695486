package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func TestSpan_EndOK(t *testing.T) {
	rec, tp := newRecorder()
	tracer := tp.Tracer("test")

	_, span := StartSpan(context.Background(), tracer, zap.NewNop(), "TapAt",
		attribute.Float64("x", 100))
	span.AddEvent("dispatching")
	span.End(nil)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "TapAt", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "dispatching", ended[0].Events()[0].Name)
}

func TestSpan_EndError(t *testing.T) {
	rec, tp := newRecorder()

	_, span := StartSpan(context.Background(), tp.Tracer("test"), zap.NewNop(), "ScrollTo")
	span.SetAttributes(attribute.Int("scrolls", 3))
	span.End(errors.New("could not find element after 3 scrolls"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Status().Description, "3 scrolls")
	assert.Contains(t, ended[0].Attributes(), attribute.Int("scrolls", 3))
}
