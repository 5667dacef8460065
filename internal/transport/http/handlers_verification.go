package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	shared "solcred/internal/transport/http/shared"
	sharedjson "solcred/internal/transport/http/shared/json"
	"solcred/internal/verification"
	id "solcred/pkg/domain"
	dErrors "solcred/pkg/domain-errors"
	"solcred/pkg/requestcontext"
)

// VerificationService is the slice of the verification service the handler
// needs.
type VerificationService interface {
	Record(ctx context.Context, verifierID id.AccountID, input verification.RecordInput) (*verification.Record, error)
	ListForCredential(ctx context.Context, credID id.CredentialID) ([]*verification.Record, error)
	LatestForCredential(ctx context.Context, credID id.CredentialID) (*verification.Record, error)
}

type VerificationHandler struct {
	verifications VerificationService
}

func NewVerificationHandler(verifications VerificationService) *VerificationHandler {
	return &VerificationHandler{verifications: verifications}
}

func (h *VerificationHandler) Register(r chi.Router) {
	r.Post("/verifications", h.handleRecord)
	r.Get("/credentials/{id}/verifications", h.handleList)
	r.Get("/credentials/{id}/verifications/latest", h.handleLatest)
}

type recordRequest struct {
	Credential struct {
		ID string `json:"id"`
	} `json:"credential"`
	Verification map[string]bool `json:"verification"`
	TrustScore   float64         `json:"trust_score"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
}

type verificationResponse struct {
	ID           string                      `json:"id"`
	CredentialID string                      `json:"credential_id"`
	VerifierID   string                      `json:"verifier_id"`
	Status       string                      `json:"status"`
	Checks       map[string]bool             `json:"checks"`
	Failure      *verification.FailureDetail `json:"failure,omitempty"`
	VerifiedAt   time.Time                   `json:"verified_at"`
}

func toVerificationResponse(rec *verification.Record) verificationResponse {
	return verificationResponse{
		ID:           rec.ID.String(),
		CredentialID: rec.CredentialID.String(),
		VerifierID:   rec.VerifierID.String(),
		Status:       string(rec.Status),
		Checks:       rec.Checks,
		Failure:      rec.Failure,
		VerifiedAt:   rec.VerifiedAt,
	}
}

func (h *VerificationHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.verifications.Record(r.Context(), requestcontext.AccountID(r.Context()), verification.RecordInput{
		CredentialRef: req.Credential.ID,
		Checks:        req.Verification,
		TrustScore:    req.TrustScore,
		VerifiedAt:    req.VerifiedAt,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sharedjson.WriteJSON(w, http.StatusCreated, toVerificationResponse(rec))
}

func (h *VerificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	credID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	records, err := h.verifications.ListForCredential(r.Context(), credID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]verificationResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toVerificationResponse(rec))
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"verifications": out})
}

func (h *VerificationHandler) handleLatest(w http.ResponseWriter, r *http.Request) {
	credID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rec, err := h.verifications.LatestForCredential(r.Context(), credID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if rec == nil {
		sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"verification": nil})
		return
	}
	sharedjson.WriteJSON(w, http.StatusOK, map[string]any{"verification": toVerificationResponse(rec)})
}
