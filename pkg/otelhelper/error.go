package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RetryCountKey annotates node error events with the attempt that failed.
const RetryCountKey = "seedflow.node.retry_count"

// SetError marks the span failed and attaches a node error event, so the
// trace of a failed run shows which node broke and on which attempt.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("seedflow.node.error", trace.WithAttributes(attrs...))
}
