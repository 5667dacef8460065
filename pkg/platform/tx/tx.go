// Package tx carries an ambient SQL transaction through context so that
// secondary writes, such as the audit outbox append, commit or roll back
// together with the operation that produced them.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx pins a transaction to the context. A nil transaction leaves the
// context untouched.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From returns the pinned transaction, if any. Stores fall back to their
// own connection when none is present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
