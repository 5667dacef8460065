package verification

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"solcred/internal/account"
	"solcred/internal/audit"
	"solcred/internal/credential"
	"solcred/internal/platform/metrics"
	"solcred/internal/platform/tracer"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/platform/sentinel"
	"solcred/pkg/requestcontext"
)

// AccountDirectory is the slice of the account service this package needs.
type AccountDirectory interface {
	Get(ctx context.Context, accountID id.AccountID) (*account.Account, error)
}

// CredentialSource supplies the credentials being verified.
type CredentialSource interface {
	Get(ctx context.Context, credID id.CredentialID) (*credential.Credential, error)
}

// Service records verification outcomes against credentials. The record is
// the verifier's attestation of which checks they ran and what they found;
// the service derives the overall status, it does not re-run the checks.
type Service struct {
	store       Store
	accounts    AccountDirectory
	credentials CredentialSource
	logger      *slog.Logger
	m           *metrics.Metrics
	audit       *audit.Publisher
	tracer      tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.m = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func NewService(store Store, accounts AccountDirectory, credentials CredentialSource, opts ...Option) *Service {
	s := &Service{
		store:       store,
		accounts:    accounts,
		credentials: credentials,
		logger:      slog.Default(),
		tracer:      tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordInput carries the verifier-supplied fields of a verification.
// CredentialRef is a string because callers may hand us references to
// credentials that live outside this engine.
type RecordInput struct {
	CredentialRef string
	Checks        map[string]bool
	TrustScore    float64
	VerifiedAt    *time.Time
}

// Record appends a verification outcome. The credential must be local:
// references to externally anchored credentials are rejected rather than
// recorded against nothing. VerifiedAt is honored verbatim when supplied so
// verifiers can backfill checks they ran earlier.
func (s *Service) Record(ctx context.Context, verifierID id.AccountID, input RecordInput) (rec *Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerification)
	defer func() { span.End(err) }()

	if _, err := s.accounts.Get(ctx, verifierID); err != nil {
		return nil, err
	}

	// Shape classification must run before id parsing: uuid.Parse accepts
	// the urn:uuid: URN form, which is an external reference here.
	if strings.Contains(input.CredentialRef, ":") {
		return nil, dErrors.New(dErrors.CodeExternalCredential, "cannot record verification for an external credential reference")
	}
	credID, err := id.ParseCredentialID(input.CredentialRef)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "credential reference is not a valid id")
	}

	if _, err := s.credentials.Get(ctx, credID); err != nil {
		return nil, err
	}

	if len(input.Checks) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one check result is required")
	}

	verifiedAt := requestcontext.Now(ctx)
	if input.VerifiedAt != nil {
		verifiedAt = *input.VerifiedAt
	}

	status, failure := outcome(input.Checks, input.TrustScore)
	rec = &Record{
		ID:           id.NewVerificationID(),
		CredentialID: credID,
		VerifierID:   verifierID,
		Status:       status,
		Checks:       input.Checks,
		Failure:      failure,
		VerifiedAt:   verifiedAt,
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification")
	}

	s.logger.InfoContext(ctx, "verification recorded",
		"verification_id", rec.ID,
		"credential_id", credID,
		"status", status,
	)
	if s.m != nil {
		s.m.Verifications.WithLabelValues(string(status)).Inc()
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionVerificationRecorded,
			ActorID: verifierID.String(),
			Subject: credID.String(),
			Detail:  map[string]any{"status": string(status)},
		})
	}
	return rec, nil
}

// ListForCredential returns all verifications of a credential, newest first.
// The credential must exist; an empty history is an empty list, not an error.
func (s *Service) ListForCredential(ctx context.Context, credID id.CredentialID) ([]*Record, error) {
	if _, err := s.credentials.Get(ctx, credID); err != nil {
		return nil, err
	}
	records, err := s.store.ListByCredential(ctx, credID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	return records, nil
}

// LatestForCredential returns the most recent verification, or nil when the
// credential has never been verified.
func (s *Service) LatestForCredential(ctx context.Context, credID id.CredentialID) (*Record, error) {
	if _, err := s.credentials.Get(ctx, credID); err != nil {
		return nil, err
	}
	rec, err := s.store.Latest(ctx, credID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return rec, nil
}
