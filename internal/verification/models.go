package verification

import (
	"sort"
	"time"

	id "solcred/pkg/domain"
)

// Status is the outcome of a verification. A record is VERIFIED only when
// every check passed.
type Status string

const (
	StatusVerified Status = "VERIFIED"
	StatusFailed   Status = "FAILED"
)

// FailureDetail is the structured evidence attached to a FAILED record. It is
// never present on a VERIFIED one. The trust score is supplied by the
// verifier, not computed here; it is stored as opaque evidence.
type FailureDetail struct {
	FailedChecks []string `json:"failed_checks"`
	TrustScore   float64  `json:"trust_score"`
}

// Record is one verification of a credential. Records are append-only; a
// later verification never rewrites an earlier one.
type Record struct {
	ID           id.VerificationID
	CredentialID id.CredentialID
	VerifierID   id.AccountID
	Status       Status
	Checks       map[string]bool
	Failure      *FailureDetail
	VerifiedAt   time.Time
}

// outcome derives the status and failure evidence from a set of named checks
// and the verifier's externally computed trust score.
func outcome(checks map[string]bool, trustScore float64) (Status, *FailureDetail) {
	var failed []string
	for name, passed := range checks {
		if !passed {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		return StatusVerified, nil
	}
	sort.Strings(failed)
	return StatusFailed, &FailureDetail{
		FailedChecks: failed,
		TrustScore:   trustScore,
	}
}
