package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"solcred/internal/jwtoken"
	id "solcred/pkg/domain"
	"solcred/pkg/requestcontext"
)

// TokenValidator defines the interface for validating session tokens.
type TokenValidator interface {
	Validate(tokenString string) (*jwtoken.Claims, error)
}

// RequireAuth resolves the acting account from the bearer token and stores it
// in the request context. Requests without a valid token are rejected before
// any trust-engine logic runs.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w)
				return
			}

			accountID, err := id.ParseAccountID(claims.AccountID)
			if err != nil || accountID.IsNil() {
				unauthorized(w)
				return
			}

			ctx := requestcontext.WithAccountID(r.Context(), accountID)
			ctx = requestcontext.WithWalletAddress(ctx, claims.WalletAddress)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
