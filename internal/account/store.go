package account

import (
	"context"

	id "solcred/pkg/domain"
)

// Store abstracts account persistence. Implementations return sentinel errors
// (pkg/platform/sentinel) for infrastructure facts; the service translates
// them into domain errors.
type Store interface {
	// Create persists a new account. Returns sentinel.ErrAlreadyUsed when the
	// wallet address is taken.
	Create(ctx context.Context, acct *Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*Account, error)
	FindByWallet(ctx context.Context, walletAddress string) (*Account, error)
}
