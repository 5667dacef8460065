package proofreq

import (
	"time"

	id "solcred/pkg/domain"
)

// Status is the proof request lifecycle state.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// ProofRequest is a verifier's ask for credentials of certain types. An empty
// target list makes the request a broadcast visible to every holder.
type ProofRequest struct {
	ID             id.ProofRequestID
	VerifierID     id.AccountID
	Title          string
	Description    string
	RequestedTypes []string
	TargetHolders  []id.AccountID
	Requirements   map[string]any
	Status         Status
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	ClosedAt       *time.Time
}

// Broadcast reports whether the request is open to all holders rather than a
// named target list.
func (r *ProofRequest) Broadcast() bool {
	return len(r.TargetHolders) == 0
}

// Targets reports whether the request names the given holder. Broadcast
// requests target everyone.
func (r *ProofRequest) Targets(holderID id.AccountID) bool {
	if r.Broadcast() {
		return true
	}
	for _, target := range r.TargetHolders {
		if target == holderID {
			return true
		}
	}
	return false
}

// Expired reports whether the request's deadline has passed. The deadline
// instant itself is still acceptable.
func (r *ProofRequest) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// Response is a holder's answer to a proof request, linking the credentials
// presented as proof. A holder answers a given request at most once.
type Response struct {
	ID            id.ResponseID
	RequestID     id.ProofRequestID
	HolderID      id.AccountID
	CredentialIDs []id.CredentialID
	Message       string
	SubmittedAt   time.Time
}

// AvailableRequest pairs an open request with the holder's credentials that
// could satisfy it. Eligibility is advisory; submission re-checks.
type AvailableRequest struct {
	Request             *ProofRequest
	MatchingCredentials []id.CredentialID
}

// OwnedRequest pairs a verifier's request with the responses received so far.
type OwnedRequest struct {
	Request   *ProofRequest
	Responses []*Response
}
