package account

// IssuerRefKind is the closed set of shapes an external credential document
// may use for its issuer field. The original W3C wire format allows a bare
// DID string or an object carrying "id" or "did"; anything else is
// Unrecognized. Explicit matching here replaces structural probing.
type IssuerRefKind int

const (
	IssuerRefUnrecognized IssuerRefKind = iota
	IssuerRefPlainDID
	IssuerRefObjectWithID
	IssuerRefObjectWithDID
)

// IssuerRef is the classified issuer field of an imported credential.
type IssuerRef struct {
	Kind IssuerRefKind
	DID  string
}

// ClassifyIssuerRef extracts a candidate DID string from a decoded JSON
// issuer field. It performs no lookups; resolution is the caller's concern.
func ClassifyIssuerRef(raw any) IssuerRef {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return IssuerRef{Kind: IssuerRefUnrecognized}
		}
		return IssuerRef{Kind: IssuerRefPlainDID, DID: v}
	case map[string]any:
		if s, ok := v["id"].(string); ok && s != "" {
			return IssuerRef{Kind: IssuerRefObjectWithID, DID: s}
		}
		if s, ok := v["did"].(string); ok && s != "" {
			return IssuerRef{Kind: IssuerRefObjectWithDID, DID: s}
		}
		return IssuerRef{Kind: IssuerRefUnrecognized}
	default:
		return IssuerRef{Kind: IssuerRefUnrecognized}
	}
}
