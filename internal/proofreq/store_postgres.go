package proofreq

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"solcred/internal/platform/postgres"
	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
)

// PostgresStore implements Store on PostgreSQL. Response uniqueness per
// (request, holder) is enforced by a unique constraint rather than a
// read-then-write check.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `
	id, verifier_id, title, description, requested_types, target_holders,
	requirements, status, expires_at, created_at, closed_at
`

func (s *PostgresStore) Create(ctx context.Context, req *ProofRequest) error {
	requirements, err := json.Marshal(req.Requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}
	targets := make([]string, len(req.TargetHolders))
	for i, target := range req.TargetHolders {
		targets[i] = target.String()
	}

	query := `
		INSERT INTO proof_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		req.ID.String(), req.VerifierID.String(),
		req.Title, req.Description,
		pq.Array(req.RequestedTypes), pq.Array(targets),
		requirements, string(req.Status),
		req.ExpiresAt, req.CreatedAt, req.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("insert proof request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reqID id.ProofRequestID) (*ProofRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM proof_requests WHERE id = $1`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, reqID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find proof request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]*ProofRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM proof_requests
		WHERE status = 'OPEN'
		ORDER BY created_at DESC
	`
	return s.list(ctx, query)
}

func (s *PostgresStore) ListByVerifier(ctx context.Context, verifierID id.AccountID) ([]*ProofRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM proof_requests
		WHERE verifier_id = $1
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, verifierID.String())
}

func (s *PostgresStore) Close(ctx context.Context, reqID id.ProofRequestID, at time.Time) (bool, error) {
	query := `
		UPDATE proof_requests
		SET status = 'CLOSED', closed_at = $2
		WHERE id = $1 AND status = 'OPEN'
	`
	result, err := s.db.ExecContext(ctx, query, reqID.String(), at)
	if err != nil {
		return false, fmt.Errorf("close proof request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close proof request: %w", err)
	}
	if affected == 0 {
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM proof_requests WHERE id = $1)`
		if err := s.db.QueryRowContext(ctx, check, reqID.String()).Scan(&exists); err != nil {
			return false, fmt.Errorf("close proof request: %w", err)
		}
		if !exists {
			return false, sentinel.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) CreateResponse(ctx context.Context, resp *Response) error {
	creds := make([]string, len(resp.CredentialIDs))
	for i, credID := range resp.CredentialIDs {
		creds[i] = credID.String()
	}

	query := `
		INSERT INTO proof_responses (id, request_id, holder_id, credential_ids, message, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		resp.ID.String(), resp.RequestID.String(), resp.HolderID.String(),
		pq.Array(creds), resp.Message, resp.SubmittedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert proof response: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResponses(ctx context.Context, reqID id.ProofRequestID) ([]*Response, error) {
	query := `
		SELECT id, request_id, holder_id, credential_ids, message, submitted_at
		FROM proof_responses
		WHERE request_id = $1
		ORDER BY submitted_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, reqID.String())
	if err != nil {
		return nil, fmt.Errorf("list proof responses: %w", err)
	}
	defer rows.Close()

	var responses []*Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proof response: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func (s *PostgresStore) HasResponded(ctx context.Context, reqID id.ProofRequestID, holderID id.AccountID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM proof_responses WHERE request_id = $1 AND holder_id = $2)`
	var responded bool
	err := s.db.QueryRowContext(ctx, query, reqID.String(), holderID.String()).Scan(&responded)
	if err != nil {
		return false, fmt.Errorf("check proof response: %w", err)
	}
	return responded, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*ProofRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list proof requests: %w", err)
	}
	defer rows.Close()

	var requests []*ProofRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proof request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*ProofRequest, error) {
	var (
		req             ProofRequest
		rawID, verifier string
		targets         []string
		requirements    []byte
		status          string
	)
	err := row.Scan(
		&rawID, &verifier,
		&req.Title, &req.Description,
		pq.Array(&req.RequestedTypes), pq.Array(&targets),
		&requirements, &status,
		&req.ExpiresAt, &req.CreatedAt, &req.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	if req.ID, err = id.ParseProofRequestID(rawID); err != nil {
		return nil, err
	}
	if req.VerifierID, err = id.ParseAccountID(verifier); err != nil {
		return nil, err
	}
	if req.TargetHolders, err = parseAccountIDs(targets); err != nil {
		return nil, err
	}
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &req.Requirements); err != nil {
			return nil, fmt.Errorf("unmarshal requirements: %w", err)
		}
	}
	req.Status = Status(status)
	return &req, nil
}

func scanResponse(row rowScanner) (*Response, error) {
	var (
		resp                   Response
		rawID, request, holder string
		creds                  []string
	)
	err := row.Scan(&rawID, &request, &holder, pq.Array(&creds), &resp.Message, &resp.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if resp.ID, err = id.ParseResponseID(rawID); err != nil {
		return nil, err
	}
	if resp.RequestID, err = id.ParseProofRequestID(request); err != nil {
		return nil, err
	}
	if resp.HolderID, err = id.ParseAccountID(holder); err != nil {
		return nil, err
	}
	resp.CredentialIDs = make([]id.CredentialID, len(creds))
	for i, cred := range creds {
		if resp.CredentialIDs[i], err = id.ParseCredentialID(cred); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

func parseAccountIDs(raw []string) ([]id.AccountID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]id.AccountID, len(raw))
	for i, s := range raw {
		var err error
		if out[i], err = id.ParseAccountID(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}
