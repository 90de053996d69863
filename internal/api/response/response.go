// Package response writes the JSON envelopes returned by every endpoint.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInfo    = "info"
)

// Envelope is the top-level JSON object of a response.
type Envelope map[string]any

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Error writes {"status":"error","message":msg}.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, Envelope{"status": StatusError, "message": msg})
}

// Fail writes an error envelope with a field-indexed error map.
func Fail(w http.ResponseWriter, code int, msg string, fields map[string][]string) {
	JSON(w, code, Envelope{"status": StatusError, "message": msg, "errors": fields})
}
