package audit

import "time"

// Action names for trust-engine audit events.
const (
	ActionAccountRegistered    = "account_registered"
	ActionCredentialIssued     = "credential_issued"
	ActionCredentialImported   = "credential_imported"
	ActionCredentialRevoked    = "credential_revoked"
	ActionProofRequestCreated  = "proof_request_created"
	ActionProofRequestClosed   = "proof_request_closed"
	ActionResponseSubmitted    = "proof_response_submitted"
	ActionVerificationRecorded = "verification_recorded"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	Action    string
	ActorID   string         // acting account
	Subject   string         // primary entity affected (credential id, request id, ...)
	RequestID string         // correlation id from the transport layer
	Detail    map[string]any // small structured payload, action-specific
}
