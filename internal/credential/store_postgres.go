package credential

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const credentialColumns = `
	id, types, issuer_id, issuer_did, holder_id, subject_did,
	issuer_resolution, claims, proof, status,
	issued_at, expires_at, revoked_at, revocation_reason
`

func (s *PostgresStore) Create(ctx context.Context, cred *Credential) error {
	claims, err := json.Marshal(cred.Claims)
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}
	proof, err := json.Marshal(cred.Proof)
	if err != nil {
		return fmt.Errorf("marshal proof: %w", err)
	}

	query := `
		INSERT INTO credentials (` + credentialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(ctx, query,
		cred.ID.String(), pq.Array(cred.Types),
		cred.IssuerID.String(), cred.IssuerDID,
		cred.HolderID.String(), cred.SubjectDID,
		string(cred.IssuerResolution), claims, proof, string(cred.Status),
		cred.IssuedAt, cred.ExpiresAt, cred.RevokedAt, cred.RevocationReason,
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, credID id.CredentialID) (*Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1`
	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, credID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) ListByHolder(ctx context.Context, holderID id.AccountID) ([]*Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE holder_id = $1
		ORDER BY issued_at DESC
	`
	return s.list(ctx, query, holderID.String())
}

func (s *PostgresStore) ListByIssuer(ctx context.Context, issuerID id.AccountID) ([]*Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE issuer_id = $1
		ORDER BY issued_at DESC
	`
	return s.list(ctx, query, issuerID.String())
}

func (s *PostgresStore) ListUsableByHolder(ctx context.Context, holderID id.AccountID, now time.Time) ([]*Credential, error) {
	// The default validity window mirrors Credential.EffectiveExpiry.
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE holder_id = $1
		  AND status = 'ACTIVE'
		  AND COALESCE(expires_at, issued_at + interval '365 days') > $2
		ORDER BY issued_at DESC
	`
	return s.list(ctx, query, holderID.String(), now)
}

// Revoke is a compare-and-set on status so concurrent revocations cannot
// overwrite each other's timestamp.
func (s *PostgresStore) Revoke(ctx context.Context, credID id.CredentialID, at time.Time, reason string) (bool, error) {
	query := `
		UPDATE credentials
		SET status = 'REVOKED', revoked_at = $2, revocation_reason = $3
		WHERE id = $1 AND status = 'ACTIVE'
	`
	result, err := s.db.ExecContext(ctx, query, credID.String(), at, reason)
	if err != nil {
		return false, fmt.Errorf("revoke credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke credential: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already revoked.
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM credentials WHERE id = $1)`
		if err := s.db.QueryRowContext(ctx, check, credID.String()).Scan(&exists); err != nil {
			return false, fmt.Errorf("revoke credential: %w", err)
		}
		if !exists {
			return false, sentinel.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Credential, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []*Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*Credential, error) {
	var (
		cred                 Credential
		rawID, issuer, holder string
		resolution, status   string
		claims, proof        []byte
		reason               sql.NullString
	)
	err := row.Scan(
		&rawID, pq.Array(&cred.Types), &issuer, &cred.IssuerDID,
		&holder, &cred.SubjectDID,
		&resolution, &claims, &proof, &status,
		&cred.IssuedAt, &cred.ExpiresAt, &cred.RevokedAt, &reason,
	)
	if err != nil {
		return nil, err
	}

	if cred.ID, err = id.ParseCredentialID(rawID); err != nil {
		return nil, err
	}
	if cred.IssuerID, err = id.ParseAccountID(issuer); err != nil {
		return nil, err
	}
	if cred.HolderID, err = id.ParseAccountID(holder); err != nil {
		return nil, err
	}
	cred.IssuerResolution = IssuerResolution(resolution)
	cred.Status = Status(status)
	cred.RevocationReason = reason.String

	if len(claims) > 0 {
		if err := json.Unmarshal(claims, &cred.Claims); err != nil {
			return nil, fmt.Errorf("unmarshal claims: %w", err)
		}
	}
	if len(proof) > 0 {
		if err := json.Unmarshal(proof, &cred.Proof); err != nil {
			return nil, fmt.Errorf("unmarshal proof: %w", err)
		}
	}
	return &cred, nil
}
