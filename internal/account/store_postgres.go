package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"solcred/internal/platform/postgres"
	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed account store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, acct *Account) error {
	query := `
		INSERT INTO accounts (id, wallet_address, role, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(acct.ID), acct.WalletAddress, string(acct.Role), acct.DisplayName, acct.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*Account, error) {
	query := `
		SELECT id, wallet_address, role, display_name, created_at
		FROM accounts WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(accountID)))
}

func (s *PostgresStore) FindByWallet(ctx context.Context, walletAddress string) (*Account, error) {
	query := `
		SELECT id, wallet_address, role, display_name, created_at
		FROM accounts WHERE wallet_address = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, walletAddress))
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Account, error) {
	var (
		acct  Account
		rawID uuid.UUID
		role  string
	)
	err := row.Scan(&rawID, &acct.WalletAddress, &role, &acct.DisplayName, &acct.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	acct.ID = id.AccountID(rawID)
	acct.Role = Role(role)
	return &acct, nil
}
