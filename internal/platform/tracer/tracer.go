// Package tracer provides a lightweight tracing abstraction for the
// orchestration core.
//
// Orchestrators and the backend client emit spans through this interface
// without depending on OpenTelemetry APIs directly.
//
// Implementations:
//   - NoopTracer: default when nothing is configured, and in tests
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanIssuanceSubmit,
	//       tracer.String(tracer.AttrDocumentType, "PASSPORT"),
	//       tracer.Bool(tracer.AttrPreviewOnly, false),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanVerificationSubmit  = "verification.submit"
	SpanIssuanceSubmit      = "issuance.submit"
	SpanIssuanceSubmitAsync = "issuance.submit_async"
	SpanIssuancePoll        = "issuance.poll"
)

// Attribute keys.
const (
	AttrSequence     = "workflow.seq"
	AttrVariant      = "verification.variant"
	AttrFileSize     = "upload.size_bytes"
	AttrDocumentType = "document.type"
	AttrPreviewOnly  = "issuance.preview_only"
	AttrWalletHash   = "wallet.did_hash"
	AttrJobID        = "issuance.job_id"
	AttrAttempt      = "poll.attempt"
	AttrStatus       = "exchange.status"
	AttrErrorKind    = "error.kind"
)

// Event names.
const (
	EventSuperseded    = "workflow.superseded"
	EventUploaded      = "upload.completed"
	EventPollResult    = "poll.result"
	EventPollDegraded  = "poll.degraded"
	EventPollRecovered = "poll.recovered"
	EventPreviewStrip  = "issuance.preview_issuance_stripped"
)
