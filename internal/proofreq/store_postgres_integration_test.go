//go:build integration

package proofreq_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solcred/internal/account"
	"solcred/internal/credential"
	"solcred/internal/did"
	"solcred/internal/proofreq"
	id "solcred/pkg/domain"
	"solcred/pkg/platform/sentinel"
	"solcred/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *proofreq.PostgresStore
	verifier *account.Account
	holder   *account.Account
	cred     *credential.Credential
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = proofreq.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"audit_outbox", "verifications", "proof_responses", "proof_requests", "credentials", "accounts")
	s.Require().NoError(err)

	accounts := account.NewPostgresStore(s.postgres.DB)
	s.verifier = &account.Account{
		ID:            id.NewAccountID(),
		WalletAddress: "7hJd3mQx8tWkBvR5nYcPsF2aGeZ9UuK4",
		Role:          account.RoleVerifier,
		CreatedAt:     time.Now().UTC(),
	}
	s.holder = &account.Account{
		ID:            id.NewAccountID(),
		WalletAddress: "2xR7mKw4vNpQ9sYeGfBhUjZcEnD6TaW8",
		Role:          account.RoleHolder,
		CreatedAt:     time.Now().UTC(),
	}
	s.Require().NoError(accounts.Create(ctx, s.verifier))
	s.Require().NoError(accounts.Create(ctx, s.holder))

	s.cred = &credential.Credential{
		ID:               id.NewCredentialID(),
		Types:            []string{"VerifiableCredential", "UniversityDegree"},
		IssuerID:         s.verifier.ID,
		IssuerDID:        did.Derive(s.verifier.WalletAddress),
		HolderID:         s.holder.ID,
		SubjectDID:       did.Derive(s.holder.WalletAddress),
		IssuerResolution: credential.IssuerResolved,
		Claims:           map[string]any{"degree": "BSc"},
		Proof:            map[string]any{"type": "Ed25519Signature2018"},
		Status:           credential.StatusActive,
		IssuedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(credential.NewPostgresStore(s.postgres.DB).Create(ctx, s.cred))
}

func (s *PostgresStoreSuite) newRequest(createdAt time.Time, targets ...id.AccountID) *proofreq.ProofRequest {
	return &proofreq.ProofRequest{
		ID:             id.NewProofRequestID(),
		VerifierID:     s.verifier.ID,
		Title:          "employment screening",
		Description:    "degree proof for a background check",
		RequestedTypes: []string{"UniversityDegree"},
		TargetHolders:  targets,
		Requirements:   map[string]any{"min_gpa": 3.0},
		Status:         proofreq.StatusOpen,
		CreatedAt:      createdAt.UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	req := s.newRequest(time.Now(), s.holder.ID)
	expiry := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Microsecond)
	req.ExpiresAt = &expiry
	s.Require().NoError(s.store.Create(ctx, req))

	got, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal("employment screening", got.Title)
	s.Equal(req.Description, got.Description)
	s.Equal(req.RequestedTypes, got.RequestedTypes)
	s.Equal(req.TargetHolders, got.TargetHolders)
	s.Equal(3.0, got.Requirements["min_gpa"])
	s.Equal(proofreq.StatusOpen, got.Status)
	s.Require().NotNil(got.ExpiresAt)
	s.True(expiry.Equal(*got.ExpiresAt))
	s.Nil(got.ClosedAt)
}

func (s *PostgresStoreSuite) TestBroadcastRoundTrip() {
	ctx := context.Background()
	req := s.newRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, req))

	got, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Empty(got.TargetHolders)
	s.True(got.Broadcast())
}

func (s *PostgresStoreSuite) TestListOpenExcludesClosed() {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	open := s.newRequest(base.Add(time.Minute))
	closed := s.newRequest(base)
	s.Require().NoError(s.store.Create(ctx, open))
	s.Require().NoError(s.store.Create(ctx, closed))

	flipped, err := s.store.Close(ctx, closed.ID, time.Now().UTC())
	s.Require().NoError(err)
	s.True(flipped)

	reqs, err := s.store.ListOpen(ctx)
	s.Require().NoError(err)
	s.Require().Len(reqs, 1)
	s.Equal(open.ID, reqs[0].ID)

	owned, err := s.store.ListByVerifier(ctx, s.verifier.ID)
	s.Require().NoError(err)
	s.Len(owned, 2)
}

func (s *PostgresStoreSuite) TestCloseCAS() {
	ctx := context.Background()
	req := s.newRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, req))

	at := time.Now().UTC().Truncate(time.Microsecond)
	flipped, err := s.store.Close(ctx, req.ID, at)
	s.Require().NoError(err)
	s.True(flipped)

	flipped, err = s.store.Close(ctx, req.ID, at.Add(time.Hour))
	s.Require().NoError(err)
	s.False(flipped)

	got, err := s.store.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(proofreq.StatusClosed, got.Status)
	s.Require().NotNil(got.ClosedAt)
	s.True(at.Equal(*got.ClosedAt))

	_, err = s.store.Close(ctx, id.NewProofRequestID(), at)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestResponses() {
	ctx := context.Background()
	req := s.newRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, req))

	responded, err := s.store.HasResponded(ctx, req.ID, s.holder.ID)
	s.Require().NoError(err)
	s.False(responded)

	resp := &proofreq.Response{
		ID:            id.NewResponseID(),
		RequestID:     req.ID,
		HolderID:      s.holder.ID,
		CredentialIDs: []id.CredentialID{s.cred.ID},
		Message:       "degree attached",
		SubmittedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.CreateResponse(ctx, resp))

	responded, err = s.store.HasResponded(ctx, req.ID, s.holder.ID)
	s.Require().NoError(err)
	s.True(responded)

	list, err := s.store.ListResponses(ctx, req.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(resp.CredentialIDs, list[0].CredentialIDs)
	s.Equal("degree attached", list[0].Message)

	dup := &proofreq.Response{
		ID:            id.NewResponseID(),
		RequestID:     req.ID,
		HolderID:      s.holder.ID,
		CredentialIDs: []id.CredentialID{s.cred.ID},
		SubmittedAt:   time.Now().UTC(),
	}
	s.ErrorIs(s.store.CreateResponse(ctx, dup), sentinel.ErrAlreadyUsed)
}

// TestConcurrentResponses verifies the (request, holder) unique constraint
// admits exactly one of many racing submissions.
func (s *PostgresStoreSuite) TestConcurrentResponses() {
	ctx := context.Background()
	req := s.newRequest(time.Now())
	s.Require().NoError(s.store.Create(ctx, req))

	const goroutines = 20
	var wg sync.WaitGroup
	var created, rejected atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateResponse(ctx, &proofreq.Response{
				ID:            id.NewResponseID(),
				RequestID:     req.ID,
				HolderID:      s.holder.ID,
				CredentialIDs: []id.CredentialID{s.cred.ID},
				SubmittedAt:   time.Now().UTC(),
			})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), rejected.Load())
}
