package credential

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/sha3"

	"solcred/internal/account"
	"solcred/internal/audit"
	"solcred/internal/did"
	"solcred/internal/platform/metrics"
	"solcred/internal/platform/tracer"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/platform/sentinel"
	"solcred/pkg/requestcontext"
)

// AccountDirectory is the slice of the account service the credential
// lifecycle depends on.
type AccountDirectory interface {
	Get(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	FindByWallet(ctx context.Context, walletAddress string) (*account.Account, error)
	ResolveIssuerRef(ctx context.Context, raw any) (*account.Account, account.IssuerRef, error)
}

// Service owns the credential lifecycle: issuance, import of externally
// issued documents, and revocation.
type Service struct {
	store    Store
	accounts AccountDirectory
	logger   *slog.Logger
	m        *metrics.Metrics
	audit    *audit.Publisher
	tracer   tracer.Tracer
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

func NewService(store Store, accounts AccountDirectory, opts ...Option) *Service {
	s := &Service{
		store:    store,
		accounts: accounts,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueInput carries the issuer-supplied fields of a new credential.
type IssueInput struct {
	SubjectDID string
	Types      []string
	Claims     map[string]any
	ExpiresAt  *time.Time
}

// Issue creates a credential attested by the acting account. The subject
// must resolve to a registered account; issuing into the void is rejected
// rather than recorded.
func (s *Service) Issue(ctx context.Context, issuerID id.AccountID, input IssueInput) (cred *Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanCredentialIssue)
	defer func() { span.End(err) }()

	issuer, err := s.accounts.Get(ctx, issuerID)
	if err != nil {
		return nil, err
	}

	subjectDID, err := did.Parse(input.SubjectDID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedDID, "invalid subject DID")
	}
	if !subjectDID.IsSolana() {
		return nil, dErrors.New(dErrors.CodeMalformedDID, "subject DID must use the solana method")
	}

	subject, err := s.accounts.FindByWallet(ctx, subjectDID.Identifier)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, dErrors.New(dErrors.CodeSubjectNotFound, "subject DID does not belong to a registered account")
	}

	if len(input.Claims) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "credential claims must not be empty")
	}

	now := requestcontext.Now(ctx)
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "expiration must be in the future")
	}

	issuerDID := issuer.DID()
	cred = &Credential{
		ID:               id.NewCredentialID(),
		Types:            normalizeTypes(input.Types),
		IssuerID:         issuer.ID,
		IssuerDID:        issuerDID,
		HolderID:         subject.ID,
		SubjectDID:       subjectDID.String(),
		IssuerResolution: IssuerResolved,
		Claims:           input.Claims,
		Proof:            synthesizeProof(issuerDID, now),
		Status:           StatusActive,
		IssuedAt:         now,
		ExpiresAt:        input.ExpiresAt,
	}

	if err := s.store.Create(ctx, cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}

	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", cred.ID,
		"issuer_id", issuer.ID,
		"holder_id", subject.ID,
		"type", cred.PrimaryType(),
	)
	if s.m != nil {
		s.m.CredentialsIssued.Inc()
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionCredentialIssued,
			ActorID: issuer.ID.String(),
			Subject: cred.ID.String(),
			Detail:  map[string]any{"holder_id": subject.ID.String(), "type": cred.PrimaryType()},
		})
	}
	return cred, nil
}

// ImportDocument is a decoded external credential in W3C wire shape. Issuer
// is kept raw because the upstream format allows both strings and objects.
type ImportDocument struct {
	Types             []string       `json:"type"`
	Issuer            any            `json:"issuer"`
	IssuanceDate      string         `json:"issuanceDate"`
	ExpirationDate    string         `json:"expirationDate"`
	CredentialSubject map[string]any `json:"credentialSubject"`
	Proof             map[string]any `json:"proof"`
}

// Import records an externally issued credential under the importing account.
// Issuer resolution is best effort: when the document's issuer does not match
// a directory account, the importer becomes issuer of record and the
// credential is tagged as a fallback so verifiers can see the difference.
func (s *Service) Import(ctx context.Context, importerID id.AccountID, doc ImportDocument) (cred *Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanCredentialImport)
	defer func() { span.End(err) }()

	importer, err := s.accounts.Get(ctx, importerID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	issuedAt := now
	if doc.IssuanceDate != "" {
		if issuedAt, err = time.Parse(time.RFC3339, doc.IssuanceDate); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "issuanceDate must be RFC 3339")
		}
	}
	var expiresAt *time.Time
	if doc.ExpirationDate != "" {
		parsed, err := time.Parse(time.RFC3339, doc.ExpirationDate)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "expirationDate must be RFC 3339")
		}
		expiresAt = &parsed
	}

	resolved, ref, err := s.accounts.ResolveIssuerRef(ctx, doc.Issuer)
	if err != nil {
		return nil, err
	}

	resolution := IssuerFallback
	issuerID := importer.ID
	issuerDID := importer.DID()
	if resolved != nil {
		resolution = IssuerResolved
		issuerID = resolved.ID
		issuerDID = resolved.DID()
	} else if ref.DID != "" {
		// Unmatched but present issuer DIDs are kept verbatim for display.
		issuerDID = ref.DID
	}

	subjectDID := importer.DID()
	claims := make(map[string]any, len(doc.CredentialSubject))
	for k, v := range doc.CredentialSubject {
		if k == "id" {
			if s, ok := v.(string); ok && s != "" {
				subjectDID = s
			}
			continue
		}
		claims[k] = v
	}

	cred = &Credential{
		ID:               id.NewCredentialID(),
		Types:            normalizeTypes(doc.Types),
		IssuerID:         issuerID,
		IssuerDID:        issuerDID,
		HolderID:         importer.ID,
		SubjectDID:       subjectDID,
		IssuerResolution: resolution,
		Claims:           claims,
		Proof:            doc.Proof,
		Status:           StatusActive,
		IssuedAt:         issuedAt,
		ExpiresAt:        expiresAt,
	}

	if err := s.store.Create(ctx, cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}

	s.logger.InfoContext(ctx, "credential imported",
		"credential_id", cred.ID,
		"holder_id", importer.ID,
		"issuer_resolution", resolution,
	)
	if s.m != nil {
		s.m.CredentialsImported.Inc()
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionCredentialImported,
			ActorID: importer.ID.String(),
			Subject: cred.ID.String(),
			Detail:  map[string]any{"issuer_resolution": string(resolution)},
		})
	}
	return cred, nil
}

// Revoke retires a credential. Only the issuer of record may revoke, and
// revoking an already revoked credential succeeds without changing the
// original revocation timestamp.
func (s *Service) Revoke(ctx context.Context, actorID id.AccountID, credID id.CredentialID, reason string) (_ *Credential, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanCredentialRevoke)
	defer func() { span.End(err) }()

	cred, err := s.Get(ctx, credID)
	if err != nil {
		return nil, err
	}
	if cred.IssuerID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the issuer may revoke a credential")
	}
	if cred.Status == StatusRevoked {
		return cred, nil
	}

	updated, err := s.store.Revoke(ctx, credID, requestcontext.Now(ctx), reason)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}

	if updated {
		s.logger.InfoContext(ctx, "credential revoked",
			"credential_id", credID,
			"issuer_id", actorID,
		)
		if s.m != nil {
			s.m.CredentialsRevoked.Inc()
		}
		if s.audit != nil {
			s.audit.Emit(ctx, audit.Event{
				Action:  audit.ActionCredentialRevoked,
				ActorID: actorID.String(),
				Subject: credID.String(),
				Detail:  map[string]any{"reason": reason},
			})
		}
	}

	// Re-read so the caller sees the winning revocation, ours or a
	// concurrent one.
	return s.Get(ctx, credID)
}

// Get loads a credential by id. Credentials are visible to any authenticated
// account; verifiers must be able to inspect what they are asked to trust.
func (s *Service) Get(ctx context.Context, credID id.CredentialID) (*Credential, error) {
	cred, err := s.store.FindByID(ctx, credID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	return cred, nil
}

// ListHeld returns the credentials held by the account, newest first.
func (s *Service) ListHeld(ctx context.Context, holderID id.AccountID) ([]*Credential, error) {
	creds, err := s.store.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return creds, nil
}

// ListIssued returns the credentials the account has issued, newest first.
func (s *Service) ListIssued(ctx context.Context, issuerID id.AccountID) ([]*Credential, error) {
	creds, err := s.store.ListByIssuer(ctx, issuerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return creds, nil
}

// ListUsable returns the holder's credentials that can currently satisfy a
// proof request.
func (s *Service) ListUsable(ctx context.Context, holderID id.AccountID) ([]*Credential, error) {
	creds, err := s.store.ListUsableByHolder(ctx, holderID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return creds, nil
}

// synthesizeProof builds the placeholder proof attached to locally issued
// credentials. The digest binds issuer and issuance time; real on-chain
// signing replaces this once wallets sign issuance.
func synthesizeProof(issuerDID string, issuedAt time.Time) map[string]any {
	digest := sha3.Sum256([]byte(issuerDID + "|" + issuedAt.UTC().Format(time.RFC3339Nano)))
	return map[string]any{
		"type":               "Ed25519Signature2018",
		"created":            issuedAt.UTC().Format(time.RFC3339),
		"verificationMethod": issuerDID + "#key-1",
		"proofValue":         hex.EncodeToString(digest[:]),
	}
}
