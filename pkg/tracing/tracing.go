// Package tracing wraps OpenTelemetry spans around harness operations.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "mobile-harness"

// Span pairs an OpenTelemetry span with the operation's logger.
type Span struct {
	span   trace.Span
	logger *zap.Logger
	name   string
}

// StartSpan opens a span named name on tracer.
func StartSpan(ctx context.Context, tracer trace.Tracer, logger *zap.Logger, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	return ctx, &Span{
		span:   span,
		logger: logger,
		name:   name,
	}
}

// End records err (if any) and closes the span.
func (s *Span) End(err error) {
	if err != nil {
		s.span.SetStatus(codes.Error, err.Error())
		s.span.RecordError(err)
		s.logger.Debug("operation failed", zap.String("op", s.name), zap.Error(err))
	} else {
		s.span.SetStatus(codes.Ok, "")
	}

	s.span.End()
}

// AddEvent records a timestamped event on the span.
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes adds attributes to the span.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// Setup installs a global tracer provider exporting to w (stdout when nil)
// and returns its shutdown function. Without Setup the global provider is
// the no-op one and spans cost nothing.
func Setup(ctx context.Context, w io.Writer) (func(context.Context) error, error) {
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
