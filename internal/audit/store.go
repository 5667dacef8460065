package audit

import "context"

// Store is the audit event sink. The postgres implementation is an outbox:
// rows are drained to Kafka by the outbox worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	// NextBatch returns up to limit unpublished events in insertion order.
	NextBatch(ctx context.Context, limit int) ([]Event, error)
	// MarkPublished removes events from the outbox once delivered.
	MarkPublished(ctx context.Context, ids []string) error
}
