package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	records [][]byte
	keys    []string
	err     error
}

func (s *captureSink) Publish(_ context.Context, key string, value []byte) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	s.records = append(s.records, value)
	return nil
}

func TestWorkerDrain(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("publishes pending events and clears the outbox", func(t *testing.T) {
		store := NewInMemoryStore()
		sink := &captureSink{}
		worker := NewWorker(store, sink, logger, time.Minute)

		require.NoError(t, store.Append(ctx, Event{
			ID:      "evt-1",
			Action:  ActionCredentialIssued,
			Subject: "cred-1",
			Detail:  map[string]any{"holder": "acct-9"},
		}))
		require.NoError(t, store.Append(ctx, Event{
			ID:      "evt-2",
			Action:  ActionCredentialRevoked,
			Subject: "cred-1",
		}))

		require.NoError(t, worker.Drain(ctx))

		require.Len(t, sink.records, 2)
		assert.Equal(t, []string{"cred-1", "cred-1"}, sink.keys)
		assert.Empty(t, store.Events())

		var first envelope
		require.NoError(t, json.Unmarshal(sink.records[0], &first))
		assert.Equal(t, "evt-1", first.ID)
		assert.Equal(t, ActionCredentialIssued, first.Action)
		assert.Equal(t, "acct-9", first.Detail["holder"])
	})

	t.Run("keeps events queued when the sink fails", func(t *testing.T) {
		store := NewInMemoryStore()
		sink := &captureSink{err: errors.New("broker down")}
		worker := NewWorker(store, sink, logger, time.Minute)

		require.NoError(t, store.Append(ctx, Event{ID: "evt-1", Action: ActionAccountRegistered}))

		require.NoError(t, worker.Drain(ctx))
		assert.Len(t, store.Events(), 1)

		sink.err = nil
		require.NoError(t, worker.Drain(ctx))
		assert.Empty(t, store.Events())
		assert.Len(t, sink.records, 1)
	})

	t.Run("empty outbox is a no-op", func(t *testing.T) {
		store := NewInMemoryStore()
		sink := &captureSink{}
		worker := NewWorker(store, sink, logger, time.Minute)

		require.NoError(t, worker.Drain(ctx))
		assert.Empty(t, sink.records)
	})
}

func TestPublisherEmitFillsDefaults(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store, slog.New(slog.DiscardHandler))

	publisher.Emit(context.Background(), Event{Action: ActionProofRequestCreated, Subject: "req-1"})

	events := store.Events()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, ActionProofRequestCreated, events[0].Action)
}
