package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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

func (s *PostgresStore) Append(ctx context.Context, rec *Record) error {
	checks, err := json.Marshal(rec.Checks)
	if err != nil {
		return fmt.Errorf("marshal checks: %w", err)
	}
	var failure []byte
	if rec.Failure != nil {
		if failure, err = json.Marshal(rec.Failure); err != nil {
			return fmt.Errorf("marshal failure detail: %w", err)
		}
	}

	query := `
		INSERT INTO verifications (id, credential_id, verifier_id, status, checks, failure, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID.String(), rec.CredentialID.String(), rec.VerifierID.String(),
		string(rec.Status), checks, failure, rec.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCredential(ctx context.Context, credID id.CredentialID) ([]*Record, error) {
	query := `
		SELECT id, credential_id, verifier_id, status, checks, failure, verified_at
		FROM verifications
		WHERE credential_id = $1
		ORDER BY verified_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, credID.String())
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Latest(ctx context.Context, credID id.CredentialID) (*Record, error) {
	query := `
		SELECT id, credential_id, verifier_id, status, checks, failure, verified_at
		FROM verifications
		WHERE credential_id = $1
		ORDER BY verified_at DESC
		LIMIT 1
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, credID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest verification: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                  Record
		rawID, cred, verifier string
		status               string
		checks, failure      []byte
	)
	err := row.Scan(&rawID, &cred, &verifier, &status, &checks, &failure, &rec.VerifiedAt)
	if err != nil {
		return nil, err
	}
	if rec.ID, err = id.ParseVerificationID(rawID); err != nil {
		return nil, err
	}
	if rec.CredentialID, err = id.ParseCredentialID(cred); err != nil {
		return nil, err
	}
	if rec.VerifierID, err = id.ParseAccountID(verifier); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	if len(checks) > 0 {
		if err := json.Unmarshal(checks, &rec.Checks); err != nil {
			return nil, fmt.Errorf("unmarshal checks: %w", err)
		}
	}
	if len(failure) > 0 {
		rec.Failure = &FailureDetail{}
		if err := json.Unmarshal(failure, rec.Failure); err != nil {
			return nil, fmt.Errorf("unmarshal failure detail: %w", err)
		}
	}
	return &rec, nil
}
