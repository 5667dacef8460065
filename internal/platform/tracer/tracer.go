// Package tracer provides a lightweight tracing abstraction for the trust engine.
//
// It defines an internal tracer interface that doesn't depend directly on
// OpenTelemetry APIs, so services can emit distributed traces while remaining
// decoupled from specific tracing implementations.
//
// Implementations:
//   - Noop: for tests (zero overhead)
//   - OTel: OpenTelemetry adapter for production
package tracer

import "context"

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// If err is non-nil, the span is marked as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
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

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Span names used by the trust engine.
const (
	SpanCredentialIssue  = "credential.issue"
	SpanCredentialImport = "credential.import"
	SpanCredentialRevoke = "credential.revoke"
	SpanDIDResolve       = "did.resolve"
	SpanProofRequest     = "proofrequest.create"
	SpanProofResponse    = "proofrequest.respond"
	SpanVerification     = "verification.record"
)
