package tracer

import "context"

// Noop is a tracer that records nothing. Used in tests and when tracing is
// not configured.
type Noop struct{}

// NewNoop creates a no-op tracer.
func NewNoop() Noop {
	return Noop{}
}

// Start returns the context unchanged and a span that does nothing.
func (Noop) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                  {}
func (noopSpan) SetAttributes(...Attribute) {}
