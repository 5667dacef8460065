// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "solcred/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an AccountID where a CredentialID is expected.
type (
	AccountID      uuid.UUID
	CredentialID   uuid.UUID
	ProofRequestID uuid.UUID
	ResponseID     uuid.UUID
	VerificationID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParseCredentialID(s string) (CredentialID, error) {
	id, err := parseUUID(s, "credential ID")
	return CredentialID(id), err
}

func ParseProofRequestID(s string) (ProofRequestID, error) {
	id, err := parseUUID(s, "proof request ID")
	return ProofRequestID(id), err
}

func ParseResponseID(s string) (ResponseID, error) {
	id, err := parseUUID(s, "response ID")
	return ResponseID(id), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	id, err := parseUUID(s, "verification ID")
	return VerificationID(id), err
}

// New functions - for freshly minted entities.

func NewAccountID() AccountID           { return AccountID(uuid.New()) }
func NewCredentialID() CredentialID     { return CredentialID(uuid.New()) }
func NewProofRequestID() ProofRequestID { return ProofRequestID(uuid.New()) }
func NewResponseID() ResponseID         { return ResponseID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// String methods - for logging and persistence keys.

func (id AccountID) String() string      { return uuid.UUID(id).String() }
func (id CredentialID) String() string   { return uuid.UUID(id).String() }
func (id ProofRequestID) String() string { return uuid.UUID(id).String() }
func (id ResponseID) String() string     { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id AccountID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ProofRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ResponseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic.
// Nil UUIDs are allowed here. Use IsNil() at the service layer for business
// validation, which allows store lookups to return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
