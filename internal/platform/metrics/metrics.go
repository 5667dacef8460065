package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AccountsRegistered   prometheus.Counter
	CredentialsIssued    prometheus.Counter
	CredentialsImported  prometheus.Counter
	CredentialsRevoked   prometheus.Counter
	ProofRequestsCreated prometheus.Counter
	ResponsesSubmitted   prometheus.Counter
	Verifications        *prometheus.CounterVec
	DIDCacheHits         prometheus.Counter
	DIDCacheMisses       prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics with the default registerer.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTest creates metrics against a throwaway registry so parallel tests
// do not collide on duplicate registration.
func NewForTest() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AccountsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_accounts_registered_total",
			Help: "Total number of accounts registered.",
		}),
		CredentialsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_credentials_issued_total",
			Help: "Total number of credentials issued internally.",
		}),
		CredentialsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_credentials_imported_total",
			Help: "Total number of external credentials imported.",
		}),
		CredentialsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_credentials_revoked_total",
			Help: "Total number of credentials revoked (first revocations only).",
		}),
		ProofRequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_proof_requests_created_total",
			Help: "Total number of proof requests created by verifiers.",
		}),
		ResponsesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_proof_responses_submitted_total",
			Help: "Total number of proof responses accepted from holders.",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "solcred_verifications_recorded_total",
			Help: "Total number of verification records, labeled by outcome.",
		}, []string{"status"}),
		DIDCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_did_cache_hits_total",
			Help: "DID document cache hits.",
		}),
		DIDCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "solcred_did_cache_misses_total",
			Help: "DID document cache misses.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solcred_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}
