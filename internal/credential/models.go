package credential

import (
	"time"

	id "solcred/pkg/domain"
)

// Status is the credential lifecycle state. The only transition is
// ACTIVE to REVOKED; revocation is terminal.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
)

// IssuerResolution records how the issuer of a credential was determined.
// Issued credentials are always Resolved. Imported credentials are Resolved
// when the document's issuer matched a directory account and Fallback when it
// did not, in which case the importer stands in as issuer of record.
type IssuerResolution string

const (
	IssuerResolved IssuerResolution = "resolved"
	IssuerFallback IssuerResolution = "fallback"
)

// baseType is the W3C marker type every credential carries.
const baseType = "VerifiableCredential"

// DefaultValidity is applied at read time when a credential carries no
// explicit expiration. It is never written back to the stored record.
const DefaultValidity = 365 * 24 * time.Hour

// Credential is a claim about a subject, attested by an issuer. DIDs are
// captured as strings at write time; account links carry the directory
// relationship.
type Credential struct {
	ID               id.CredentialID
	Types            []string
	IssuerID         id.AccountID
	IssuerDID        string
	HolderID         id.AccountID
	SubjectDID       string
	IssuerResolution IssuerResolution
	Claims           map[string]any
	Proof            map[string]any
	Status           Status
	IssuedAt         time.Time
	ExpiresAt        *time.Time
	RevokedAt        *time.Time
	RevocationReason string
}

// PrimaryType returns the most specific type label, skipping the W3C base
// marker. Empty when the credential carries no usable type.
func (c *Credential) PrimaryType() string {
	for _, t := range c.Types {
		if t != baseType {
			return t
		}
	}
	if len(c.Types) > 0 {
		return c.Types[0]
	}
	return ""
}

// EffectiveExpiry is the explicit expiration when set, otherwise one year
// after issuance.
func (c *Credential) EffectiveExpiry() time.Time {
	if c.ExpiresAt != nil {
		return *c.ExpiresAt
	}
	return c.IssuedAt.Add(DefaultValidity)
}

// Expired reports whether the credential's validity window has passed at the
// given instant.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.EffectiveExpiry())
}

// Usable reports whether the credential can satisfy a proof request at the
// given instant: active and within its validity window.
func (c *Credential) Usable(now time.Time) bool {
	return c.Status == StatusActive && !c.Expired(now)
}

// HasType reports whether the credential carries the given type label.
func (c *Credential) HasType(typeName string) bool {
	for _, t := range c.Types {
		if t == typeName {
			return true
		}
	}
	return false
}

// normalizeTypes guarantees the base marker is present and first, preserving
// the order of the remaining labels.
func normalizeTypes(types []string) []string {
	out := []string{baseType}
	for _, t := range types {
		if t != baseType && t != "" {
			out = append(out, t)
		}
	}
	return out
}
