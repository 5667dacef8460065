package verification

import (
	"context"

	id "solcred/pkg/domain"
)

// Store abstracts verification record persistence. Records are append-only;
// there is no update path.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	// ListByCredential returns a credential's records, newest first.
	ListByCredential(ctx context.Context, credID id.CredentialID) ([]*Record, error)
	// Latest returns the most recent record for a credential, or
	// sentinel.ErrNotFound when none exists.
	Latest(ctx context.Context, credID id.CredentialID) (*Record, error)
}
