package verification

import (
	"context"
	"sort"
	"sync"

	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
)

// InMemoryStore backs tests and dev mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.CredentialID][]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.CredentialID][]*Record)}
}

func (s *InMemoryStore) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.CredentialID] = append(s.records[rec.CredentialID], copyRecord(rec))
	return nil
}

func (s *InMemoryStore) ListByCredential(_ context.Context, credID id.CredentialID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.records[credID]
	out := make([]*Record, 0, len(records))
	for _, rec := range records {
		out = append(out, copyRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VerifiedAt.After(out[j].VerifiedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Latest(ctx context.Context, credID id.CredentialID) (*Record, error) {
	records, err := s.ListByCredential(ctx, credID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return records[0], nil
}

func copyRecord(rec *Record) *Record {
	dup := *rec
	if rec.Checks != nil {
		dup.Checks = make(map[string]bool, len(rec.Checks))
		for k, v := range rec.Checks {
			dup.Checks[k] = v
		}
	}
	if rec.Failure != nil {
		failure := *rec.Failure
		failure.FailedChecks = append([]string(nil), rec.Failure.FailedChecks...)
		dup.Failure = &failure
	}
	return &dup
}
