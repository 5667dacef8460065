package json

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code. Encoding
// failures after the header is written can only be logged by the caller's
// middleware, so the error is swallowed here.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
