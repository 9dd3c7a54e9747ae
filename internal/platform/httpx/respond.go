// Package httpx provides the JSON envelope used by every API response.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the common response body.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail sends {success:false, message}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Message: message})
}

// ValidationFailed sends a 400 with the full list of violated rules.
func ValidationFailed(w http.ResponseWriter, messages []string) {
	JSON(w, http.StatusBadRequest, Envelope{Errors: messages})
}

// ServerError sends a 500. err is included only when exposeDetail is true.
func ServerError(w http.ResponseWriter, message string, err error, exposeDetail bool) {
	body := Envelope{Message: message}
	if exposeDetail && err != nil {
		body.Error = err.Error()
	}
	JSON(w, http.StatusInternalServerError, body)
}

// DecodeJSON decodes the JSON request body into target.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
