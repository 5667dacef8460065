// Package did implements parsing, derivation, and resolution of decentralized
// identifiers. Identifiers are bound to wallet addresses: an account's DID is
// a pure function of its wallet address and is never stored as independent
// state, which rules out the DID drifting from the address it names.
package did

import (
	"strings"

	"github.com/mr-tron/base58"

	dErrors "solcred/pkg/domain-errors"
)

// MethodSolana is the only method this service derives. Parsing accepts other
// methods so lookups against imported external credentials can degrade to
// absence instead of failure.
const MethodSolana = "solana"

// DID is a parsed decentralized identifier.
type DID struct {
	Method     string
	Identifier string
}

// String reassembles the canonical did:<method>:<identifier> form.
func (d DID) String() string {
	return "did:" + d.Method + ":" + d.Identifier
}

// IsSolana reports whether the DID uses the solana method.
func (d DID) IsSolana() bool {
	return d.Method == MethodSolana
}

// Parse validates the three-segment did:<method>:<identifier> shape. It never
// queries storage. Any other shape is a malformed-DID error.
func Parse(s string) (DID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return DID{}, dErrors.New(dErrors.CodeMalformedDID, "DID must have the form did:<method>:<identifier>")
	}
	return DID{Method: parts[1], Identifier: parts[2]}, nil
}

// Derive maps a wallet address to its DID. Pure, deterministic, and injective:
// the identifier segment is the address itself.
func Derive(walletAddress string) string {
	return "did:" + MethodSolana + ":" + walletAddress
}

// ValidWalletAddress reports whether the address is plausible as a wallet
// public key: non-empty and base58-decodable. Full key validation belongs to
// the chain, not this service.
func ValidWalletAddress(addr string) bool {
	if addr == "" {
		return false
	}
	_, err := base58.Decode(addr)
	return err == nil
}
