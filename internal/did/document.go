package did

// Document is a W3C DID document as served by the resolver. The service
// exposes exactly one Ed25519 verification method per identity, keyed off the
// wallet public key.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	Controller         string               `json:"controller"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication"`
	AssertionMethod    []string             `json:"assertionMethod"`
	Service            []ServiceEndpoint    `json:"service"`
}

// VerificationMethod is a single verification method entry.
type VerificationMethod struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Controller      string `json:"controller"`
	PublicKeyBase58 string `json:"publicKeyBase58"`
}

// ServiceEndpoint is an informational service entry on the document.
type ServiceEndpoint struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

const keyFragment = "#key-1"

// BuildDocument assembles the DID document for a wallet address.
func BuildDocument(walletAddress string) Document {
	didStr := Derive(walletAddress)
	keyID := didStr + keyFragment
	return Document{
		Context:    []string{"https://www.w3.org/ns/did/v1"},
		ID:         didStr,
		Controller: didStr,
		VerificationMethod: []VerificationMethod{{
			ID:              keyID,
			Type:            "Ed25519VerificationKey2018",
			Controller:      didStr,
			PublicKeyBase58: walletAddress,
		}},
		Authentication:  []string{keyID},
		AssertionMethod: []string{keyID},
		Service: []ServiceEndpoint{{
			ID:              didStr + "#identity",
			Type:            "IdentityService",
			ServiceEndpoint: "https://solcred.io/identity",
		}},
	}
}
