package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in memory. Dev mode and tests only; there
// is no durability guarantee.
type InMemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) NextBatch(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.events) {
		limit = len(s.events)
	}
	batch := make([]Event, limit)
	copy(batch, s.events[:limit])
	return batch, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	published := make(map[string]bool, len(ids))
	for _, eventID := range ids {
		published[eventID] = true
	}
	remaining := s.events[:0]
	for _, event := range s.events {
		if !published[event.ID] {
			remaining = append(remaining, event)
		}
	}
	s.events = remaining
	return nil
}

// Events returns a snapshot of buffered events, oldest first. Test helper.
func (s *InMemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]Event, len(s.events))
	copy(snapshot, s.events)
	return snapshot
}
