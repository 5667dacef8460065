package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	txcontext "solcred/pkg/platform/tx"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the outbox
// worker; Kafka is the long-term home for audit events.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL audit store that writes to the outbox.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins an ambient transaction when one is present in the context so
// audit rows commit atomically with the business write.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	query := `
		INSERT INTO audit_outbox (id, occurred_at, action, actor_id, subject, request_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		event.ID, event.Timestamp, event.Action, event.ActorID, event.Subject, event.RequestID, detail)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) NextBatch(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, occurred_at, action, actor_id, subject, request_id, detail
		FROM audit_outbox
		ORDER BY occurred_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("read audit outbox: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event  Event
			detail []byte
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.Action,
			&event.ActorID, &event.Subject, &event.RequestID, &detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM audit_outbox WHERE id = ANY($1)`
	if _, err := s.db.ExecContext(ctx, query, ids); err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}
