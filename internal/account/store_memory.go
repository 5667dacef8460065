package account

import (
	"context"
	"sync"

	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in process memory. Used in tests and dev mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.AccountID]Account
	byWallet map[string]id.AccountID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.AccountID]Account),
		byWallet: make(map[string]id.AccountID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byWallet[acct.WalletAddress]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[acct.ID] = *acct
	s.byWallet[acct.WalletAddress] = acct.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acct, ok := s.byID[accountID]; ok {
		copied := acct
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByWallet(_ context.Context, walletAddress string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if accountID, ok := s.byWallet[walletAddress]; ok {
		copied := s.byID[accountID]
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
