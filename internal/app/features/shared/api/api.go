// internal/app/features/shared/api/api.go
package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// Error kinds rendered to clients. The boundary maps each kind to an HTTP
// status; handlers never leak lower-layer error text.
const (
	KindNotFound           = "not_found"
	KindConflict           = "conflict"
	KindValidationFailed   = "validation_failed"
	KindUnauthorized       = "unauthorized"
	KindRateLimited        = "rate_limited"
	KindExpired            = "expired"
	KindInvariantViolation = "invariant_violation"
	KindInternal           = "internal"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Kind        string     `json:"kind"`
	Message     string     `json:"message"`
	AvailableAt *time.Time `json:"availableAt,omitempty"` // set for rate_limited
}

// ErrorResponse wraps ErrorBody under the "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON writes value as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// WriteError writes a tagged error response.
func WriteError(w http.ResponseWriter, status int, kind, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{Kind: kind, Message: message}})
}

// WriteRateLimited writes a rate_limited error carrying the retry-after time.
func WriteRateLimited(w http.ResponseWriter, message string, availableAt time.Time) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
		Kind:        KindRateLimited,
		Message:     message,
		AvailableAt: &availableAt,
	}})
}

// WriteInternal writes a generic internal failure. The cause is the caller's
// responsibility to log; it is never echoed to the client.
func WriteInternal(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, KindInternal, "an unexpected error occurred")
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
