package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"solcred/internal/audit"
	"solcred/internal/did"
	"solcred/internal/platform/metrics"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/platform/sentinel"
	"solcred/pkg/requestcontext"
)

// Service is the account directory. It owns the wallet-to-account binding
// that DID resolution and issuer matching are built on.
type Service struct {
	store  Store
	logger *slog.Logger
	m      *metrics.Metrics
	audit  *audit.Publisher
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

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account bound to a wallet address. Each wallet address
// holds at most one account; a second registration is a conflict, never an
// upsert.
func (s *Service) Register(ctx context.Context, walletAddress string, role Role, displayName string) (*Account, error) {
	if !did.ValidWalletAddress(walletAddress) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "wallet address must be a base58 string")
	}
	if !ValidRole(role) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown role %q", role))
	}

	acct := &Account{
		ID:            id.NewAccountID(),
		WalletAddress: walletAddress,
		Role:          role,
		DisplayName:   displayName,
		CreatedAt:     requestcontext.Now(ctx),
	}

	if err := s.store.Create(ctx, acct); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "wallet address already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.logger.InfoContext(ctx, "account registered",
		"account_id", acct.ID,
		"role", acct.Role,
	)
	if s.m != nil {
		s.m.AccountsRegistered.Inc()
	}
	if s.audit != nil {
		s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionAccountRegistered,
			ActorID: acct.ID.String(),
			Subject: acct.ID.String(),
			Detail:  map[string]any{"role": string(acct.Role)},
		})
	}
	return acct, nil
}

// Get returns the account or CodeNotFound.
func (s *Service) Get(ctx context.Context, accountID id.AccountID) (*Account, error) {
	acct, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return acct, nil
}

// FindByWallet looks up the account bound to a wallet address. Absence is not
// an error here: callers use this for matching, where an unknown wallet is an
// ordinary outcome. Returns (nil, nil) when no account holds the address.
func (s *Service) FindByWallet(ctx context.Context, walletAddress string) (*Account, error) {
	acct, err := s.store.FindByWallet(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up wallet")
	}
	return acct, nil
}

// FindByDID resolves a DID string to a local account. Malformed DIDs and
// foreign methods are treated as absence, not errors, so best-effort callers
// never fail on input they merely cannot match.
func (s *Service) FindByDID(ctx context.Context, didString string) (*Account, error) {
	parsed, err := did.Parse(didString)
	if err != nil || !parsed.IsSolana() {
		return nil, nil
	}
	return s.FindByWallet(ctx, parsed.Identifier)
}

// ResolveIssuerRef classifies a raw issuer field from an external credential
// document and attempts to match it to a local account. A nil account with a
// nil error means the issuer is simply not in the directory.
func (s *Service) ResolveIssuerRef(ctx context.Context, raw any) (*Account, IssuerRef, error) {
	ref := ClassifyIssuerRef(raw)
	if ref.Kind == IssuerRefUnrecognized {
		return nil, ref, nil
	}
	acct, err := s.FindByDID(ctx, ref.DID)
	if err != nil {
		return nil, ref, err
	}
	return acct, ref, nil
}

// WalletRegistered reports whether a wallet address has a local account.
// Satisfies the DID resolver's directory dependency.
func (s *Service) WalletRegistered(ctx context.Context, walletAddress string) (bool, error) {
	acct, err := s.FindByWallet(ctx, walletAddress)
	if err != nil {
		return false, err
	}
	return acct != nil, nil
}
