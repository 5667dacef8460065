package credential

import (
	"context"
	"time"

	id "solcred/pkg/domain"
)

// Store abstracts credential persistence. Implementations return sentinel
// errors; the service translates them into domain errors.
type Store interface {
	Create(ctx context.Context, cred *Credential) error
	FindByID(ctx context.Context, credID id.CredentialID) (*Credential, error)
	// ListByHolder returns the holder's credentials, newest first.
	ListByHolder(ctx context.Context, holderID id.AccountID) ([]*Credential, error)
	// ListByIssuer returns credentials issued by the account, newest first.
	ListByIssuer(ctx context.Context, issuerID id.AccountID) ([]*Credential, error)
	// Revoke flips an ACTIVE credential to REVOKED with a compare-and-set on
	// status. Returns false when the credential was not ACTIVE, which callers
	// treat as an already-revoked race, and sentinel.ErrNotFound when the id
	// does not exist.
	Revoke(ctx context.Context, credID id.CredentialID, at time.Time, reason string) (bool, error)
	// ListUsableByHolder returns the holder's ACTIVE credentials that have
	// not expired at the given instant, newest first.
	ListUsableByHolder(ctx context.Context, holderID id.AccountID, now time.Time) ([]*Credential, error)
}
