// Package web is the operator console's HTTP surface.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/passengerflow-console/internal/api"
	"github.com/passengerflow-console/internal/records"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// writeBackendError maps a failed backend call onto the console's response.
// Backend status codes in the 4xx range are passed through, everything else
// is reported as a bad gateway.
func writeBackendError(w http.ResponseWriter, message string, err error) {
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		fields := make(map[string]interface{}, len(verr.Fields))
		for k, v := range verr.Fields {
			fields[k] = v
		}
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", fields)
		return
	}

	status := http.StatusBadGateway
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
		status = statusErr.StatusCode
	}
	writeError(w, status, message, map[string]interface{}{
		"message": api.Message(err),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
