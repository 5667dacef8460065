package account

import (
	"time"

	"solcred/internal/did"
	id "solcred/pkg/domain"
)

// Role labels what an account primarily does. It is authorization context
// only; the trust engine does not structurally prevent a holder from issuing
// credentials it is a party to.
type Role string

const (
	RoleHolder   Role = "HOLDER"
	RoleIssuer   Role = "ISSUER"
	RoleVerifier Role = "VERIFIER"
)

// ValidRole reports whether the role is one of the three known labels.
func ValidRole(r Role) bool {
	switch r {
	case RoleHolder, RoleIssuer, RoleVerifier:
		return true
	}
	return false
}

// Account is an identity bound to a wallet address. The wallet address is the
// stable identifier; the DID is derived from it on demand and never persisted
// as independent state.
type Account struct {
	ID            id.AccountID
	WalletAddress string
	Role          Role
	DisplayName   string
	CreatedAt     time.Time
}

// DID derives the account's decentralized identifier from its wallet address.
func (a Account) DID() string {
	return did.Derive(a.WalletAddress)
}
