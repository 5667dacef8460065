package shared

import (
	"errors"
	"net/http"

	"solcred/internal/transport/http/shared/json"
	dErrors "solcred/pkg/domain-errors"
)

// WriteError centralizes domain error translation to HTTP responses. It maps
// transport-agnostic domain codes onto status codes and a stable JSON error
// envelope.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": codeToToken(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		json.WriteJSON(w, CodeToHTTPStatus(domainErr.Code), response)
		return
	}

	json.WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": codeToToken(dErrors.CodeInternal),
	})
}

// CodeToHTTPStatus translates domain error codes to HTTP status codes.
func CodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeSubjectNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput,
		dErrors.CodeMalformedDID, dErrors.CodeExternalCredential:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeAlreadyResponded, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeRequestUnavailable:
		return http.StatusGone
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func codeToToken(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeSubjectNotFound:
		return "subject_not_found"
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeMalformedDID:
		return "malformed_did"
	case dErrors.CodeExternalCredential:
		return "external_credential"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeAlreadyResponded:
		return "already_responded"
	case dErrors.CodeInvariantViolation:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeRequestUnavailable:
		return "request_unavailable"
	case dErrors.CodeTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
