package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"solcred/internal/proofreq"
	shared "solcred/internal/transport/http/shared"
	sharedjson "solcred/internal/transport/http/shared/json"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/requestcontext"
)

// ProofRequestService is the slice of the proof request service the handler
// needs.
type ProofRequestService interface {
	Create(ctx context.Context, verifierID id.AccountID, input proofreq.CreateInput) (*proofreq.ProofRequest, error)
	AvailableFor(ctx context.Context, holderID id.AccountID) ([]*proofreq.AvailableRequest, error)
	OwnedBy(ctx context.Context, verifierID id.AccountID) ([]*proofreq.OwnedRequest, error)
	SubmitResponse(ctx context.Context, holderID id.AccountID, reqID id.ProofRequestID, credIDs []id.CredentialID, message string) (*proofreq.Response, error)
	Close(ctx context.Context, verifierID id.AccountID, reqID id.ProofRequestID) (*proofreq.ProofRequest, error)
}

type ProofRequestHandler struct {
	requests ProofRequestService
}

func NewProofRequestHandler(requests ProofRequestService) *ProofRequestHandler {
	return &ProofRequestHandler{requests: requests}
}

func (h *ProofRequestHandler) Register(r chi.Router) {
	r.Post("/proof-requests", h.handleCreate)
	r.Get("/proof-requests/available", h.handleAvailable)
	r.Get("/proof-requests/owned", h.handleOwned)
	r.Post("/proof-requests/{id}/responses", h.handleSubmitResponse)
	r.Post("/proof-requests/{id}/close", h.handleClose)
}

type createProofRequest struct {
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	RequestedTypes []string       `json:"requested_types"`
	TargetHolders  []string       `json:"target_holders,omitempty"`
	Requirements   map[string]any `json:"requirements,omitempty"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
}

type proofRequestResponse struct {
	ID             string         `json:"id"`
	VerifierID     string         `json:"verifier_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	RequestedTypes []string       `json:"requested_types"`
	TargetHolders  []string       `json:"target_holders,omitempty"`
	Requirements   map[string]any `json:"requirements,omitempty"`
	Status         string         `json:"status"`
	Broadcast      bool           `json:"broadcast"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	ClosedAt       *time.Time     `json:"closed_at,omitempty"`
}

func toProofRequestResponse(req *proofreq.ProofRequest) proofRequestResponse {
	targets := make([]string, 0, len(req.TargetHolders))
	for _, target := range req.TargetHolders {
		targets = append(targets, target.String())
	}
	return proofRequestResponse{
		ID:             req.ID.String(),
		VerifierID:     req.VerifierID.String(),
		Title:          req.Title,
		Description:    req.Description,
		RequestedTypes: req.RequestedTypes,
		TargetHolders:  targets,
		Requirements:   req.Requirements,
		Status:         string(req.Status),
		Broadcast:      req.Broadcast(),
		ExpiresAt:      req.ExpiresAt,
		CreatedAt:      req.CreatedAt,
		ClosedAt:       req.ClosedAt,
	}
}

type responseResponse struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id"`
	HolderID      string    `json:"holder_id"`
	CredentialIDs []string  `json:"credential_ids"`
	Message       string    `json:"message,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func toResponseResponse(resp *proofreq.Response) responseResponse {
	creds := make([]string, 0, len(resp.CredentialIDs))
	for _, credID := range resp.CredentialIDs {
		creds = append(creds, credID.String())
	}
	return responseResponse{
		ID:            resp.ID.String(),
		RequestID:     resp.RequestID.String(),
		HolderID:      resp.HolderID.String(),
		CredentialIDs: creds,
		Message:       resp.Message,
		SubmittedAt:   resp.SubmittedAt,
	}
}

func (h *ProofRequestHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	targets := make([]id.AccountID, 0, len(req.TargetHolders))
	for _, raw := range req.TargetHolders {
		target, err := id.ParseAccountID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		targets = append(targets, target)
	}

	created, err := h.requests.Create(r.Context(), requestcontext.AccountID(r.Context()), proofreq.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		RequestedTypes: req.RequestedTypes,
		TargetHolders:  targets,
		Requirements:   req.Requirements,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toProofRequestResponse(created))
}

func (h *ProofRequestHandler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	available, err := h.requests.AvailableFor(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	type availableEntry struct {
		Request             proofRequestResponse `json:"request"`
		MatchingCredentials []string             `json:"matching_credentials"`
	}
	entries := make([]availableEntry, 0, len(available))
	for _, entry := range available {
		matching := make([]string, 0, len(entry.MatchingCredentials))
		for _, credID := range entry.MatchingCredentials {
			matching = append(matching, credID.String())
		}
		entries = append(entries, availableEntry{
			Request:             toProofRequestResponse(entry.Request),
			MatchingCredentials: matching,
		})
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"requests": entries})
}

func (h *ProofRequestHandler) handleOwned(w http.ResponseWriter, r *http.Request) {
	owned, err := h.requests.OwnedBy(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	type ownedEntry struct {
		Request   proofRequestResponse `json:"request"`
		Responses []responseResponse   `json:"responses"`
	}
	entries := make([]ownedEntry, 0, len(owned))
	for _, entry := range owned {
		responses := make([]responseResponse, 0, len(entry.Responses))
		for _, resp := range entry.Responses {
			responses = append(responses, toResponseResponse(resp))
		}
		entries = append(entries, ownedEntry{
			Request:   toProofRequestResponse(entry.Request),
			Responses: responses,
		})
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"requests": entries})
}

type submitResponseRequest struct {
	CredentialIDs []string `json:"credential_ids"`
	Message       string   `json:"message,omitempty"`
}

func (h *ProofRequestHandler) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	reqID, err := id.ParseProofRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req submitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	credIDs := make([]id.CredentialID, 0, len(req.CredentialIDs))
	for _, raw := range req.CredentialIDs {
		credID, err := id.ParseCredentialID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		credIDs = append(credIDs, credID)
	}

	resp, err := h.requests.SubmitResponse(r.Context(), requestcontext.AccountID(r.Context()), reqID, credIDs, req.Message)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toResponseResponse(resp))
}

func (h *ProofRequestHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	reqID, err := id.ParseProofRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	closed, err := h.requests.Close(r.Context(), requestcontext.AccountID(r.Context()), reqID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, toProofRequestResponse(closed))
}
