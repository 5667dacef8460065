package proofreq

import (
	"context"
	"errors"
	"log/slog"
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

// CredentialSource supplies holder credentials for matching and submission
// checks.
type CredentialSource interface {
	Get(ctx context.Context, credID id.CredentialID) (*credential.Credential, error)
	ListUsable(ctx context.Context, holderID id.AccountID) ([]*credential.Credential, error)
}

// Service owns proof requests: creation by verifiers, discovery by holders,
// and response submission.
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

// CreateInput carries the verifier-supplied fields for a new proof request.
type CreateInput struct {
	Title          string
	Description    string
	RequestedTypes []string
	TargetHolders  []id.AccountID
	Requirements   map[string]any
	ExpiresAt      *time.Time
}

// Create opens a proof request. Target holders do not have to exist yet; a
// verifier may target an account registered after the request goes out.
func (s *Service) Create(ctx context.Context, verifierID id.AccountID, input CreateInput) (req *ProofRequest, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProofRequest)
	defer func() { span.End(err) }()

	verifier, err := s.accounts.Get(ctx, verifierID)
	if err != nil {
		return nil, err
	}

	if input.Title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(input.RequestedTypes) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one requested type is required")
	}
	for _, t := range input.RequestedTypes {
		if t == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "requested types must not be empty strings")
		}
	}
	now := requestcontext.Now(ctx)
	if input.ExpiresAt != nil && input.ExpiresAt.Before(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "expiry must be in the future")
	}

	req = &ProofRequest{
		ID:             id.NewProofRequestID(),
		VerifierID:     verifier.ID,
		Title:          input.Title,
		Description:    input.Description,
		RequestedTypes: input.RequestedTypes,
		TargetHolders:  input.TargetHolders,
		Requirements:   input.Requirements,
		Status:         StatusOpen,
		ExpiresAt:      input.ExpiresAt,
		CreatedAt:      now,
	}
	if err := s.store.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proof request")
	}

	s.logger.InfoContext(ctx, "proof request created",
		"request_id", req.ID,
		"verifier_id", verifier.ID,
		"broadcast", req.Broadcast(),
	)
	if s.m != nil {
		s.m.ProofRequestsCreated.Inc()
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionProofRequestCreated,
			ActorID: verifier.ID.String(),
			Subject: req.ID.String(),
			Detail:  map[string]any{"requested_types": input.RequestedTypes, "broadcast": req.Broadcast()},
		})
	}
	return req, nil
}

// AvailableFor lists the requests the holder may still answer: open, not past
// their deadline, targeting the holder (or everyone), and not yet responded
// to by this holder. Each entry carries the holder's currently usable
// credentials matching the requested types.
func (s *Service) AvailableFor(ctx context.Context, holderID id.AccountID) ([]*AvailableRequest, error) {
	if _, err := s.accounts.Get(ctx, holderID); err != nil {
		return nil, err
	}

	usable, err := s.credentials.ListUsable(ctx, holderID)
	if err != nil {
		return nil, err
	}

	open, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proof requests")
	}

	now := requestcontext.Now(ctx)
	available := make([]*AvailableRequest, 0, len(open))
	for _, req := range open {
		if req.Expired(now) {
			continue
		}
		if !req.Targets(holderID) {
			continue
		}
		responded, err := s.store.HasResponded(ctx, req.ID, holderID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check responses")
		}
		if responded {
			continue
		}
		available = append(available, &AvailableRequest{
			Request:             req,
			MatchingCredentials: matchCredentials(req.RequestedTypes, usable),
		})
	}
	return available, nil
}

// SubmitResponse answers a proof request with one or more of the holder's
// credentials. Every presented credential must be the holder's, usable, and
// of a requested type; each holder answers a request at most once.
func (s *Service) SubmitResponse(ctx context.Context, holderID id.AccountID, reqID id.ProofRequestID, credIDs []id.CredentialID, message string) (resp *Response, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProofResponse)
	defer func() { span.End(err) }()

	if _, err := s.accounts.Get(ctx, holderID); err != nil {
		return nil, err
	}

	req, err := s.get(ctx, reqID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if req.Status != StatusOpen {
		return nil, dErrors.New(dErrors.CodeRequestUnavailable, "proof request is closed")
	}
	if req.Expired(now) {
		return nil, dErrors.New(dErrors.CodeRequestUnavailable, "proof request has expired")
	}
	if !req.Targets(holderID) {
		return nil, dErrors.New(dErrors.CodeRequestUnavailable, "proof request does not target this holder")
	}

	if len(credIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one credential is required")
	}
	for _, credID := range credIDs {
		cred, err := s.credentials.Get(ctx, credID)
		if err != nil {
			return nil, err
		}
		if cred.HolderID != holderID {
			return nil, dErrors.New(dErrors.CodeForbidden, "credential belongs to another holder")
		}
		if !cred.Usable(now) {
			return nil, dErrors.New(dErrors.CodeValidation, "credential is revoked or expired")
		}
		if !matchesAny(req.RequestedTypes, cred) {
			return nil, dErrors.New(dErrors.CodeValidation, "credential does not match the requested types")
		}
	}

	resp = &Response{
		ID:            id.NewResponseID(),
		RequestID:     req.ID,
		HolderID:      holderID,
		CredentialIDs: credIDs,
		Message:       message,
		SubmittedAt:   now,
	}
	if err := s.store.CreateResponse(ctx, resp); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeAlreadyResponded, "holder has already responded to this request")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store response")
	}

	s.logger.InfoContext(ctx, "proof response submitted",
		"request_id", req.ID,
		"holder_id", holderID,
		"credentials", len(credIDs),
	)
	if s.m != nil {
		s.m.ResponsesSubmitted.Inc()
	}
	if s.audit != nil {
		ids := make([]string, len(credIDs))
		for i, credID := range credIDs {
			ids[i] = credID.String()
		}
		s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionResponseSubmitted,
			ActorID: holderID.String(),
			Subject: req.ID.String(),
			Detail:  map[string]any{"credential_ids": ids},
		})
	}
	return resp, nil
}

// OwnedBy lists the verifier's requests with the responses received so far,
// newest request first.
func (s *Service) OwnedBy(ctx context.Context, verifierID id.AccountID) ([]*OwnedRequest, error) {
	requests, err := s.store.ListByVerifier(ctx, verifierID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proof requests")
	}
	owned := make([]*OwnedRequest, 0, len(requests))
	for _, req := range requests {
		responses, err := s.store.ListResponses(ctx, req.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list responses")
		}
		owned = append(owned, &OwnedRequest{Request: req, Responses: responses})
	}
	return owned, nil
}

// Close ends a proof request. Owner only; closing an already closed request
// succeeds without moving the close timestamp.
func (s *Service) Close(ctx context.Context, verifierID id.AccountID, reqID id.ProofRequestID) (*ProofRequest, error) {
	req, err := s.get(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if req.VerifierID != verifierID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the requesting verifier may close a proof request")
	}
	if req.Status == StatusClosed {
		return req, nil
	}

	closed, err := s.store.Close(ctx, reqID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "proof request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close proof request")
	}

	if closed {
		s.logger.InfoContext(ctx, "proof request closed", "request_id", reqID)
		if s.audit != nil {
			s.audit.Emit(ctx, audit.Event{
				Action:  audit.ActionProofRequestClosed,
				ActorID: verifierID.String(),
				Subject: reqID.String(),
			})
		}
	}
	return s.get(ctx, reqID)
}

func (s *Service) get(ctx context.Context, reqID id.ProofRequestID) (*ProofRequest, error) {
	req, err := s.store.FindByID(ctx, reqID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "proof request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proof request")
	}
	return req, nil
}

func matchCredentials(requestedTypes []string, creds []*credential.Credential) []id.CredentialID {
	matching := make([]id.CredentialID, 0, len(creds))
	for _, cred := range creds {
		if matchesAny(requestedTypes, cred) {
			matching = append(matching, cred.ID)
		}
	}
	return matching
}

func matchesAny(requestedTypes []string, cred *credential.Credential) bool {
	for _, t := range requestedTypes {
		if cred.HasType(t) {
			return true
		}
	}
	return false
}
