package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks span as failed with err.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// End closes span, marking it failed when err is not nil.
func End(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err != nil {
		SetError(span, err, attrs...)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
