package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/creastat/booking"
)

// errorResponse is the in-band failure body. Error is null when the
// failure has no customer message.
type errorResponse struct {
	Error *string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// writeMessage reports a domain failure with HTTP 200.
func writeMessage(w http.ResponseWriter, message *string) {
	writeJSON(w, http.StatusOK, errorResponse{Error: message})
}

// writeText reports a domain failure with a fixed message.
func writeText(w http.ResponseWriter, message string) {
	writeMessage(w, &message)
}

// writeServerError reports a failure outside the domain, such as an
// undecodable body or an unavailable session store.
func writeServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}{
		Error: http.StatusText(http.StatusInternalServerError),
		Code:  http.StatusInternalServerError,
	})
}

// parsedMessage returns the reason parsed from err, or nil when there is none.
func parsedMessage(err error) *string {
	_, message := booking.ParseAuthenticationError(err)
	if message == "" {
		return nil
	}
	return &message
}
