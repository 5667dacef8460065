package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"solcred/internal/credential"
	shared "solcred/internal/transport/http/shared"
	sharedjson "solcred/internal/transport/http/shared/json"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/requestcontext"
)

// CredentialService is the slice of the credential service the handler needs.
type CredentialService interface {
	Issue(ctx context.Context, issuerID id.AccountID, input credential.IssueInput) (*credential.Credential, error)
	Import(ctx context.Context, importerID id.AccountID, doc credential.ImportDocument) (*credential.Credential, error)
	Revoke(ctx context.Context, actorID id.AccountID, credID id.CredentialID, reason string) (*credential.Credential, error)
	Get(ctx context.Context, credID id.CredentialID) (*credential.Credential, error)
	ListHeld(ctx context.Context, holderID id.AccountID) ([]*credential.Credential, error)
	ListIssued(ctx context.Context, issuerID id.AccountID) ([]*credential.Credential, error)
}

type CredentialHandler struct {
	credentials CredentialService
}

func NewCredentialHandler(credentials CredentialService) *CredentialHandler {
	return &CredentialHandler{credentials: credentials}
}

func (h *CredentialHandler) Register(r chi.Router) {
	r.Post("/credentials", h.handleIssue)
	r.Post("/credentials/import", h.handleImport)
	r.Get("/credentials", h.handleListHeld)
	r.Get("/credentials/issued", h.handleListIssued)
	r.Get("/credentials/{id}", h.handleGet)
	r.Post("/credentials/{id}/revoke", h.handleRevoke)
}

type issueRequest struct {
	SubjectDID string         `json:"subject_did"`
	Types      []string       `json:"types"`
	Claims     map[string]any `json:"claims"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

type credentialResponse struct {
	ID               string         `json:"id"`
	Types            []string       `json:"types"`
	IssuerDID        string         `json:"issuer_did"`
	IssuerID         string         `json:"issuer_id"`
	HolderID         string         `json:"holder_id"`
	SubjectDID       string         `json:"subject_did"`
	IssuerResolution string         `json:"issuer_resolution"`
	Claims           map[string]any `json:"claims"`
	Proof            map[string]any `json:"proof,omitempty"`
	Status           string         `json:"status"`
	IssuedAt         time.Time      `json:"issued_at"`
	ExpiresAt        *time.Time     `json:"expires_at,omitempty"`
	EffectiveExpiry  time.Time      `json:"effective_expiry"`
	RevokedAt        *time.Time     `json:"revoked_at,omitempty"`
	RevocationReason string         `json:"revocation_reason,omitempty"`
}

func toCredentialResponse(cred *credential.Credential) credentialResponse {
	return credentialResponse{
		ID:               cred.ID.String(),
		Types:            cred.Types,
		IssuerDID:        cred.IssuerDID,
		IssuerID:         cred.IssuerID.String(),
		HolderID:         cred.HolderID.String(),
		SubjectDID:       cred.SubjectDID,
		IssuerResolution: string(cred.IssuerResolution),
		Claims:           cred.Claims,
		Proof:            cred.Proof,
		Status:           string(cred.Status),
		IssuedAt:         cred.IssuedAt,
		ExpiresAt:        cred.ExpiresAt,
		EffectiveExpiry:  cred.EffectiveExpiry(),
		RevokedAt:        cred.RevokedAt,
		RevocationReason: cred.RevocationReason,
	}
}

func toCredentialResponses(creds []*credential.Credential) []credentialResponse {
	out := make([]credentialResponse, 0, len(creds))
	for _, cred := range creds {
		out = append(out, toCredentialResponse(cred))
	}
	return out
}

func (h *CredentialHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cred, err := h.credentials.Issue(r.Context(), requestcontext.AccountID(r.Context()), credential.IssueInput{
		SubjectDID: req.SubjectDID,
		Types:      req.Types,
		Claims:     req.Claims,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

func (h *CredentialHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc credential.ImportDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	cred, err := h.credentials.Import(r.Context(), requestcontext.AccountID(r.Context()), doc)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

func (h *CredentialHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	credID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req revokeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	cred, err := h.credentials.Revoke(r.Context(), requestcontext.AccountID(r.Context()), credID, req.Reason)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toCredentialResponse(cred))
}

func (h *CredentialHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	credID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	cred, err := h.credentials.Get(r.Context(), credID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toCredentialResponse(cred))
}

func (h *CredentialHandler) handleListHeld(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials.ListHeld(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"credentials": toCredentialResponses(creds)})
}

func (h *CredentialHandler) handleListIssued(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials.ListIssued(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"credentials": toCredentialResponses(creds)})
}
