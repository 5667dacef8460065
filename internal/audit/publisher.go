package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"solcred/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and writes
// through the Store so tests can swap sinks easily. Emission is fail-open:
// a failed append is logged and the business operation proceeds.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to append audit event",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
	}
}
