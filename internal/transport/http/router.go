package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solcred/internal/platform/metrics"
	"solcred/internal/platform/middleware"
)

// RouterConfig collects everything the router needs. Handlers stay thin;
// all domain behavior lives behind the service interfaces.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator middleware.TokenValidator
	RequestTimeout time.Duration

	Accounts      *AccountHandler
	Credentials   *CredentialHandler
	ProofRequests *ProofRequestHandler
	Verifications *VerificationHandler

	// Health reports readiness of backing stores. Nil means always healthy.
	Health func() error
}

// NewRouter assembles the HTTP surface: public account and DID routes,
// bearer-protected domain routes, and the operational endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Latency(cfg.Metrics))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", handleHealth(cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		public.Use(middleware.ContentTypeJSON)
		cfg.Accounts.RegisterPublic(public)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.ContentTypeJSON)
		protected.Use(middleware.RequireAuth(cfg.TokenValidator, cfg.Logger))
		cfg.Accounts.RegisterProtected(protected)
		cfg.Credentials.Register(protected)
		cfg.ProofRequests.Register(protected)
		cfg.Verifications.Register(protected)
	})

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
