package credential

import (
	"context"
	"sort"
	"sync"
	"time"

	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe map-backed store for tests and dev mode.
type InMemoryStore struct {
	mu    sync.RWMutex
	creds map[id.CredentialID]*Credential
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{creds: make(map[id.CredentialID]*Credential)}
}

func (s *InMemoryStore) Create(_ context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.creds[cred.ID]; exists {
		return sentinel.ErrConflict
	}
	s.creds[cred.ID] = copyCredential(cred)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, credID id.CredentialID) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[credID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyCredential(cred), nil
}

func (s *InMemoryStore) ListByHolder(_ context.Context, holderID id.AccountID) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c *Credential) bool { return c.HolderID == holderID }), nil
}

func (s *InMemoryStore) ListByIssuer(_ context.Context, issuerID id.AccountID) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c *Credential) bool { return c.IssuerID == issuerID }), nil
}

func (s *InMemoryStore) ListUsableByHolder(_ context.Context, holderID id.AccountID, now time.Time) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c *Credential) bool {
		return c.HolderID == holderID && c.Usable(now)
	}), nil
}

func (s *InMemoryStore) Revoke(_ context.Context, credID id.CredentialID, at time.Time, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[credID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if cred.Status != StatusActive {
		return false, nil
	}
	revokedAt := at
	cred.Status = StatusRevoked
	cred.RevokedAt = &revokedAt
	cred.RevocationReason = reason
	return true, nil
}

// collect returns matching credentials newest first. Caller holds the lock.
func (s *InMemoryStore) collect(match func(*Credential) bool) []*Credential {
	var out []*Credential
	for _, cred := range s.creds {
		if match(cred) {
			out = append(out, copyCredential(cred))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	return out
}

func copyCredential(cred *Credential) *Credential {
	dup := *cred
	dup.Types = append([]string(nil), cred.Types...)
	if cred.Claims != nil {
		dup.Claims = make(map[string]any, len(cred.Claims))
		for k, v := range cred.Claims {
			dup.Claims[k] = v
		}
	}
	if cred.Proof != nil {
		dup.Proof = make(map[string]any, len(cred.Proof))
		for k, v := range cred.Proof {
			dup.Proof[k] = v
		}
	}
	if cred.ExpiresAt != nil {
		t := *cred.ExpiresAt
		dup.ExpiresAt = &t
	}
	if cred.RevokedAt != nil {
		t := *cred.RevokedAt
		dup.RevokedAt = &t
	}
	return &dup
}
