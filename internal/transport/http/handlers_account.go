package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"solcred/internal/account"
	"solcred/internal/did"
	shared "solcred/internal/transport/http/shared"
	sharedjson "solcred/internal/transport/http/shared/json"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/requestcontext"
)

// AccountService is the slice of the account service the handler needs.
type AccountService interface {
	Register(ctx context.Context, walletAddress string, role account.Role, displayName string) (*account.Account, error)
	Get(ctx context.Context, accountID id.AccountID) (*account.Account, error)
	FindByWallet(ctx context.Context, walletAddress string) (*account.Account, error)
}

// TokenMinter issues bearer tokens for authenticated wallets.
type TokenMinter interface {
	Mint(accountID id.AccountID, walletAddress string, ttl time.Duration) (string, error)
}

// DIDResolver serves public DID documents.
type DIDResolver interface {
	ResolveDocument(ctx context.Context, didStr string) (did.Document, error)
}

type AccountHandler struct {
	accounts AccountService
	tokens   TokenMinter
	resolver DIDResolver
	tokenTTL time.Duration
}

func NewAccountHandler(accounts AccountService, tokens TokenMinter, resolver DIDResolver, tokenTTL time.Duration) *AccountHandler {
	return &AccountHandler{accounts: accounts, tokens: tokens, resolver: resolver, tokenTTL: tokenTTL}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *AccountHandler) RegisterPublic(r chi.Router) {
	r.Post("/accounts", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Get("/dids/{did}", h.handleResolveDID)
}

// RegisterProtected mounts the routes behind bearer auth.
func (h *AccountHandler) RegisterProtected(r chi.Router) {
	r.Get("/accounts/{id}", h.handleGet)
	r.Get("/accounts/me", h.handleMe)
}

type registerRequest struct {
	WalletAddress string `json:"wallet_address"`
	Role          string `json:"role"`
	DisplayName   string `json:"display_name"`
}

type accountResponse struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	DID           string    `json:"did"`
	Role          string    `json:"role"`
	DisplayName   string    `json:"display_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAccountResponse(acct *account.Account) accountResponse {
	return accountResponse{
		ID:            acct.ID.String(),
		WalletAddress: acct.WalletAddress,
		DID:           acct.DID(),
		Role:          string(acct.Role),
		DisplayName:   acct.DisplayName,
		CreatedAt:     acct.CreatedAt,
	}
}

func (h *AccountHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	acct, err := h.accounts.Register(r.Context(), req.WalletAddress, account.Role(req.Role), req.DisplayName)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toAccountResponse(acct))
}

func (h *AccountHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	accountID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	acct, err := h.accounts.Get(r.Context(), accountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (h *AccountHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.Get(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toAccountResponse(acct))
}

type loginRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	AccountID   string `json:"account_id"`
}

// handleLogin exchanges a wallet address for a bearer token. Wallet signature
// verification happens at the gateway in front of this service; within the
// trust engine possession of the address is taken as authenticated.
func (h *AccountHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	acct, err := h.accounts.FindByWallet(r.Context(), req.WalletAddress)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if acct == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "wallet is not registered"))
		return
	}

	token, err := h.tokens.Mint(acct.ID, acct.WalletAddress, h.tokenTTL)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint token"))
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokenTTL.Seconds()),
		AccountID:   acct.ID.String(),
	})
}

func (h *AccountHandler) handleResolveDID(w http.ResponseWriter, r *http.Request) {
	doc, err := h.resolver.ResolveDocument(r.Context(), chi.URLParam(r, "did"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, doc)
}
