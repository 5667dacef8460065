package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const defaultBatchSize = 100

// Sink delivers a serialized audit event to its long-term home.
type Sink interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Worker drains the audit outbox to a Sink. It is the second half of the
// outbox pattern: Publisher writes events in the business transaction, the
// worker ships them asynchronously.
type Worker struct {
	store    Store
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewWorker(store Store, sink Sink, logger *slog.Logger, interval time.Duration) *Worker {
	return &Worker{
		store:    store,
		sink:     sink,
		logger:   logger,
		interval: interval,
		batch:    defaultBatchSize,
	}
}

// Run drains the outbox on a fixed interval until ctx is cancelled. One final
// drain happens on shutdown so a clean stop leaves the outbox empty.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := w.Drain(drainCtx); err != nil {
				w.logger.Error("final audit drain failed", "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of pending events and removes them from the
// outbox. Events that fail to publish stay queued for the next pass.
func (w *Worker) Drain(ctx context.Context) error {
	events, err := w.store.NextBatch(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("load audit batch: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	published := make([]string, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(envelope{
			ID:        event.ID,
			Timestamp: event.Timestamp,
			Action:    event.Action,
			ActorID:   event.ActorID,
			Subject:   event.Subject,
			RequestID: event.RequestID,
			Detail:    event.Detail,
		})
		if err != nil {
			w.logger.ErrorContext(ctx, "dropping unmarshalable audit event", "id", event.ID, "error", err)
			published = append(published, event.ID)
			continue
		}
		if err := w.sink.Publish(ctx, event.Subject, payload); err != nil {
			break
		}
		published = append(published, event.ID)
	}

	if len(published) == 0 {
		return nil
	}
	if err := w.store.MarkPublished(ctx, published); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// envelope is the wire shape of an audit event on the topic.
type envelope struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	ActorID   string         `json:"actor_id,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}
