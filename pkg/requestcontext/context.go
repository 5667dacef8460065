// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need.
//
// Usage in services (read values):
//
//	accountID := requestcontext.AccountID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithAccountID(ctx, accountID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "solcred/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	accountIDKey     struct{}
	walletAddressKey struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyAccountID     = accountIDKey{}
	ContextKeyWalletAddress = walletAddressKey{}
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// WithAccountID stores the authenticated account ID in the context.
func WithAccountID(ctx context.Context, accountID id.AccountID) context.Context {
	return context.WithValue(ctx, ContextKeyAccountID, accountID)
}

// AccountID returns the authenticated account ID, or the nil ID when absent.
func AccountID(ctx context.Context) id.AccountID {
	if v, ok := ctx.Value(ContextKeyAccountID).(id.AccountID); ok {
		return v
	}
	return id.AccountID{}
}

// WithWalletAddress stores the authenticated wallet address in the context.
func WithWalletAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ContextKeyWalletAddress, addr)
}

// WalletAddress returns the authenticated wallet address, or "" when absent.
func WalletAddress(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyWalletAddress).(string); ok {
		return v
	}
	return ""
}

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestID returns the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithTime pins the request time in the context. Middleware sets this once per
// request; tests use it to make time-dependent logic deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// Now returns the pinned request time, falling back to time.Now().
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return v
	}
	return time.Now()
}
