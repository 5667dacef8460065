package credential

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solcred/internal/account"
	"solcred/internal/audit"
	"solcred/internal/platform/metrics"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/requestcontext"
)

const (
	issuerWallet  = "Avq3xW9pKe5FHT2zrNbVuJkM8gDsyC4U"
	holderWallet  = "2xR7mKw4vNpQ9sYeGfBhUjZcEnD6TaW8"
	unknownWallet = "7hJd3mQx8tWkBvR5nYcPsF2aGeZ9UuK4"
)

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	store    *InMemoryStore
	auditLog *audit.InMemoryStore
	service  *Service
	issuer   *account.Account
	holder   *account.Account
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.now = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	accounts := account.NewService(account.NewInMemoryStore(), account.WithLogger(logger))
	var err error
	s.issuer, err = accounts.Register(s.ctx, issuerWallet, account.RoleIssuer, "issuer")
	s.Require().NoError(err)
	s.holder, err = accounts.Register(s.ctx, holderWallet, account.RoleHolder, "holder")
	s.Require().NoError(err)

	s.store = NewInMemoryStore()
	s.auditLog = audit.NewInMemoryStore()
	s.service = NewService(s.store, accounts,
		WithLogger(logger),
		WithMetrics(metrics.NewForTest()),
		WithAuditPublisher(audit.NewPublisher(s.auditLog, logger)),
	)
}

func (s *ServiceSuite) issue(input IssueInput) *Credential {
	if input.SubjectDID == "" {
		input.SubjectDID = s.holder.DID()
	}
	if input.Claims == nil {
		input.Claims = map[string]any{"degree": "BSc"}
	}
	cred, err := s.service.Issue(s.ctx, s.issuer.ID, input)
	s.Require().NoError(err)
	return cred
}

func (s *ServiceSuite) TestIssue() {
	cred := s.issue(IssueInput{Types: []string{"UniversityDegree"}})

	s.False(cred.ID.IsNil())
	s.Equal([]string{"VerifiableCredential", "UniversityDegree"}, cred.Types)
	s.Equal(s.issuer.ID, cred.IssuerID)
	s.Equal(s.issuer.DID(), cred.IssuerDID)
	s.Equal(s.holder.ID, cred.HolderID)
	s.Equal(s.holder.DID(), cred.SubjectDID)
	s.Equal(IssuerResolved, cred.IssuerResolution)
	s.Equal(StatusActive, cred.Status)
	s.Equal(s.now, cred.IssuedAt)
	s.Nil(cred.ExpiresAt)
	s.Nil(cred.RevokedAt)

	s.Equal("Ed25519Signature2018", cred.Proof["type"])
	s.Equal(s.issuer.DID()+"#key-1", cred.Proof["verificationMethod"])
	s.NotEmpty(cred.Proof["proofValue"])

	events := s.auditLog.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionCredentialIssued, events[0].Action)
	s.Equal(cred.ID.String(), events[0].Subject)
}

func (s *ServiceSuite) TestIssueMalformedSubjectDID() {
	for _, subject := range []string{"", "not-a-did", "did:solana:", "did:solana:a:b"} {
		_, err := s.service.Issue(s.ctx, s.issuer.ID, IssueInput{
			SubjectDID: subject,
			Claims:     map[string]any{"k": "v"},
		})
		s.Require().Error(err, "subject %q", subject)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedDID), "subject %q", subject)
	}
}

func (s *ServiceSuite) TestIssueForeignMethodSubject() {
	_, err := s.service.Issue(s.ctx, s.issuer.ID, IssueInput{
		SubjectDID: "did:ethr:0xabc123",
		Claims:     map[string]any{"k": "v"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMalformedDID))
}

func (s *ServiceSuite) TestIssueUnregisteredSubject() {
	_, err := s.service.Issue(s.ctx, s.issuer.ID, IssueInput{
		SubjectDID: "did:solana:" + unknownWallet,
		Claims:     map[string]any{"k": "v"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSubjectNotFound))
}

func (s *ServiceSuite) TestIssueEmptyClaims() {
	_, err := s.service.Issue(s.ctx, s.issuer.ID, IssueInput{SubjectDID: s.holder.DID()})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestIssuePastExpiration() {
	past := s.now.Add(-time.Hour)
	_, err := s.service.Issue(s.ctx, s.issuer.ID, IssueInput{
		SubjectDID: s.holder.DID(),
		Claims:     map[string]any{"k": "v"},
		ExpiresAt:  &past,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestImportWithResolvedIssuer() {
	cred, err := s.service.Import(s.ctx, s.holder.ID, ImportDocument{
		Types:        []string{"VerifiableCredential", "EmploymentProof"},
		Issuer:       s.issuer.DID(),
		IssuanceDate: "2025-11-02T10:00:00Z",
		CredentialSubject: map[string]any{
			"id":       s.holder.DID(),
			"employer": "Acme",
		},
		Proof: map[string]any{"type": "Ed25519Signature2018", "proofValue": "zabc"},
	})
	s.Require().NoError(err)

	s.Equal(IssuerResolved, cred.IssuerResolution)
	s.Equal(s.issuer.ID, cred.IssuerID)
	s.Equal(s.issuer.DID(), cred.IssuerDID)
	s.Equal(s.holder.ID, cred.HolderID)
	s.Equal(s.holder.DID(), cred.SubjectDID)
	s.Equal(map[string]any{"employer": "Acme"}, cred.Claims)
	s.Equal(time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC), cred.IssuedAt)
	s.Equal("zabc", cred.Proof["proofValue"])
}

func (s *ServiceSuite) TestImportFallbackIssuer() {
	foreignDID := "did:ethr:0xdeadbeef"
	cred, err := s.service.Import(s.ctx, s.holder.ID, ImportDocument{
		Types:             []string{"EmploymentProof"},
		Issuer:            map[string]any{"id": foreignDID},
		CredentialSubject: map[string]any{"employer": "Globex"},
	})
	s.Require().NoError(err)

	// Importer becomes issuer of record but the document's DID is kept.
	s.Equal(IssuerFallback, cred.IssuerResolution)
	s.Equal(s.holder.ID, cred.IssuerID)
	s.Equal(foreignDID, cred.IssuerDID)
	s.Equal(s.holder.DID(), cred.SubjectDID, "subject defaults to importer")
	s.Equal(s.now, cred.IssuedAt, "issuance defaults to request time")
}

func (s *ServiceSuite) TestImportUnrecognizedIssuer() {
	cred, err := s.service.Import(s.ctx, s.holder.ID, ImportDocument{
		Issuer:            map[string]any{"name": "no did here"},
		CredentialSubject: map[string]any{"k": "v"},
	})
	s.Require().NoError(err)
	s.Equal(IssuerFallback, cred.IssuerResolution)
	s.Equal(s.holder.DID(), cred.IssuerDID)
}

func (s *ServiceSuite) TestImportBadDates() {
	_, err := s.service.Import(s.ctx, s.holder.ID, ImportDocument{
		IssuanceDate:      "yesterday",
		CredentialSubject: map[string]any{"k": "v"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Import(s.ctx, s.holder.ID, ImportDocument{
		ExpirationDate:    "2026-13-45",
		CredentialSubject: map[string]any{"k": "v"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestRevoke() {
	cred := s.issue(IssueInput{})

	revoked, err := s.service.Revoke(s.ctx, s.issuer.ID, cred.ID, "key compromise")
	s.Require().NoError(err)
	s.Equal(StatusRevoked, revoked.Status)
	s.Require().NotNil(revoked.RevokedAt)
	s.Equal(s.now, *revoked.RevokedAt)
	s.Equal("key compromise", revoked.RevocationReason)
}

func (s *ServiceSuite) TestRevokeIdempotent() {
	cred := s.issue(IssueInput{})

	first, err := s.service.Revoke(s.ctx, s.issuer.ID, cred.ID, "first")
	s.Require().NoError(err)

	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	second, err := s.service.Revoke(later, s.issuer.ID, cred.ID, "second")
	s.Require().NoError(err)

	s.Equal(StatusRevoked, second.Status)
	s.Equal(*first.RevokedAt, *second.RevokedAt, "original revocation timestamp survives")
	s.Equal("first", second.RevocationReason)

	var revocations int
	for _, e := range s.auditLog.Events() {
		if e.Action == audit.ActionCredentialRevoked {
			revocations++
		}
	}
	s.Equal(1, revocations, "idempotent re-revoke emits no second event")
}

func (s *ServiceSuite) TestRevokeNotIssuer() {
	cred := s.issue(IssueInput{})

	_, err := s.service.Revoke(s.ctx, s.holder.ID, cred.ID, "nope")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestRevokeUnknownCredential() {
	_, err := s.service.Revoke(s.ctx, s.issuer.ID, id.NewCredentialID(), "x")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListHeldAndIssued() {
	first := s.issue(IssueInput{Types: []string{"A"}})
	ctxLater := requestcontext.WithTime(context.Background(), s.now.Add(time.Minute))
	second, err := s.service.Issue(ctxLater, s.issuer.ID, IssueInput{
		SubjectDID: s.holder.DID(),
		Types:      []string{"B"},
		Claims:     map[string]any{"k": "v"},
	})
	s.Require().NoError(err)

	held, err := s.service.ListHeld(s.ctx, s.holder.ID)
	s.Require().NoError(err)
	s.Require().Len(held, 2)
	s.Equal(second.ID, held[0].ID, "newest first")
	s.Equal(first.ID, held[1].ID)

	issued, err := s.service.ListIssued(s.ctx, s.issuer.ID)
	s.Require().NoError(err)
	s.Len(issued, 2)

	none, err := s.service.ListHeld(s.ctx, s.issuer.ID)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *ServiceSuite) TestListUsableExcludesRevokedAndExpired() {
	usable := s.issue(IssueInput{Types: []string{"Keep"}})

	revoked := s.issue(IssueInput{Types: []string{"Revoked"}})
	_, err := s.service.Revoke(s.ctx, s.issuer.ID, revoked.ID, "gone")
	s.Require().NoError(err)

	soon := s.now.Add(time.Minute)
	expired, err := s.service.Issue(s.ctx, s.issuer.ID, IssueInput{
		SubjectDID: s.holder.DID(),
		Types:      []string{"Expiring"},
		Claims:     map[string]any{"k": "v"},
		ExpiresAt:  &soon,
	})
	s.Require().NoError(err)

	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	got, err := s.service.ListUsable(later, s.holder.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(usable.ID, got[0].ID)
	s.NotEqual(expired.ID, got[0].ID)
}

func (s *ServiceSuite) TestProofDigestIsDeterministic() {
	a := synthesizeProof("did:solana:w", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := synthesizeProof("did:solana:w", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := synthesizeProof("did:solana:w", time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC))
	s.Equal(a["proofValue"], b["proofValue"])
	s.NotEqual(a["proofValue"], c["proofValue"])
}
