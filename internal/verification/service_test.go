package verification

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"solcred/internal/account"
	"solcred/internal/audit"
	"solcred/internal/credential"
	"solcred/internal/platform/metrics"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/requestcontext"
)

const (
	issuerWallet   = "Avq3xW9pKe5FHT2zrNbVuJkM8gDsyC4U"
	holderWallet   = "2xR7mKw4vNpQ9sYeGfBhUjZcEnD6TaW8"
	verifierWallet = "7hJd3mQx8tWkBvR5nYcPsF2aGeZ9UuK4"
)

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	service     *Service
	credentials *credential.Service
	verifier    *account.Account
	cred        *credential.Credential
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.now = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	accounts := account.NewService(account.NewInMemoryStore(), account.WithLogger(logger))
	issuer, err := accounts.Register(s.ctx, issuerWallet, account.RoleIssuer, "issuer")
	s.Require().NoError(err)
	holder, err := accounts.Register(s.ctx, holderWallet, account.RoleHolder, "holder")
	s.Require().NoError(err)
	s.verifier, err = accounts.Register(s.ctx, verifierWallet, account.RoleVerifier, "verifier")
	s.Require().NoError(err)

	s.credentials = credential.NewService(credential.NewInMemoryStore(), accounts,
		credential.WithLogger(logger))
	s.cred, err = s.credentials.Issue(s.ctx, issuer.ID, credential.IssueInput{
		SubjectDID: holder.DID(),
		Types:      []string{"UniversityDegree"},
		Claims:     map[string]any{"degree": "BSc"},
	})
	s.Require().NoError(err)

	s.service = NewService(NewInMemoryStore(), accounts, s.credentials,
		WithLogger(logger),
		WithMetrics(metrics.NewForTest()),
		WithAuditPublisher(audit.NewPublisher(audit.NewInMemoryStore(), logger)),
	)
}

func (s *ServiceSuite) TestRecordAllChecksPass() {
	rec, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: s.cred.ID.String(),
		Checks:        map[string]bool{"signature": true, "expiry": true, "status": true},
	})
	s.Require().NoError(err)

	s.Equal(StatusVerified, rec.Status)
	s.Nil(rec.Failure, "no failure evidence on a verified record")
	s.Equal(s.now, rec.VerifiedAt)
	s.Equal(s.cred.ID, rec.CredentialID)
	s.Equal(s.verifier.ID, rec.VerifierID)
}

func (s *ServiceSuite) TestRecordFailedChecks() {
	rec, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: s.cred.ID.String(),
		Checks:        map[string]bool{"signature": true, "expiry": false, "status": false, "issuer": true},
		TrustScore:    0.42,
	})
	s.Require().NoError(err)

	s.Equal(StatusFailed, rec.Status)
	s.Require().NotNil(rec.Failure)
	s.Equal([]string{"expiry", "status"}, rec.Failure.FailedChecks)
	s.InDelta(0.42, rec.Failure.TrustScore, 1e-9, "caller's trust score stored verbatim")
}

func (s *ServiceSuite) TestRecordSingleFailedCheck() {
	rec, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: s.cred.ID.String(),
		Checks:        map[string]bool{"signature": false},
	})
	s.Require().NoError(err)
	s.Equal(StatusFailed, rec.Status)
	s.InDelta(0.0, rec.Failure.TrustScore, 1e-9)
}

func (s *ServiceSuite) TestRecordTrustScoreIgnoredWhenVerified() {
	rec, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: s.cred.ID.String(),
		Checks:        map[string]bool{"signature": true},
		TrustScore:    0.9,
	})
	s.Require().NoError(err)
	s.Equal(StatusVerified, rec.Status)
	s.Nil(rec.Failure, "trust score is failure evidence only")
}

func (s *ServiceSuite) TestRecordHonorsSuppliedTime() {
	earlier := s.now.Add(-72 * time.Hour)
	rec, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: s.cred.ID.String(),
		Checks:        map[string]bool{"signature": true},
		VerifiedAt:    &earlier,
	})
	s.Require().NoError(err)
	s.Equal(earlier, rec.VerifiedAt)
}

func (s *ServiceSuite) TestRecordExternalReference() {
	for _, ref := range []string{
		"did:ethr:0xabc/credentials/1",
		"urn:uuid:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		"https://other.example/credentials/42",
	} {
		_, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
			CredentialRef: ref,
			Checks:        map[string]bool{"signature": true},
		})
		s.Require().Error(err, "ref %q", ref)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalCredential), "ref %q", ref)
	}
}

func (s *ServiceSuite) TestRecordGarbageReference() {
	_, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: "not-an-id",
		Checks:        map[string]bool{"signature": true},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestRecordUnknownVerifier() {
	_, err := s.service.Record(s.ctx, id.NewAccountID(), RecordInput{
		CredentialRef: s.cred.ID.String(),
		Checks:        map[string]bool{"signature": true},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRecordUnknownCredential() {
	_, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: id.NewCredentialID().String(),
		Checks:        map[string]bool{"signature": true},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRecordEmptyChecks() {
	_, err := s.service.Record(s.ctx, s.verifier.ID, RecordInput{
		CredentialRef: s.cred.ID.String(),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestHistoryIsAppendOnly() {
	record := func(ctx context.Context, passed bool) *Record {
		rec, err := s.service.Record(ctx, s.verifier.ID, RecordInput{
			CredentialRef: s.cred.ID.String(),
			Checks:        map[string]bool{"signature": passed},
		})
		s.Require().NoError(err)
		return rec
	}

	first := record(s.ctx, false)
	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	second := record(later, true)

	history, err := s.service.ListForCredential(s.ctx, s.cred.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(second.ID, history[0].ID, "newest first")
	s.Equal(first.ID, history[1].ID)
	s.Equal(StatusFailed, history[1].Status, "earlier outcome untouched")

	latest, err := s.service.LatestForCredential(s.ctx, s.cred.ID)
	s.Require().NoError(err)
	s.Equal(second.ID, latest.ID)
}

func (s *ServiceSuite) TestLatestForUnverifiedCredential() {
	latest, err := s.service.LatestForCredential(s.ctx, s.cred.ID)
	s.Require().NoError(err)
	s.Nil(latest)
}

func TestOutcome(t *testing.T) {
	status, failure := outcome(map[string]bool{"a": true, "b": true}, 0.8)
	assert.Equal(t, StatusVerified, status)
	assert.Nil(t, failure)

	status, failure = outcome(map[string]bool{"a": true, "b": false, "c": false, "d": false}, 0.25)
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, []string{"b", "c", "d"}, failure.FailedChecks)
	assert.InDelta(t, 0.25, failure.TrustScore, 1e-9)
}
