package supabase

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/creastat/booking"
)

// gotrue-go reports non-2xx responses as "response status code NNN: <body>"
var statusPattern = regexp.MustCompile(`response status code ([0-9]{3})(?::\s*(.*))?`)

// authErrorBody covers both the current and the legacy GoTrue error shapes.
type authErrorBody struct {
	ErrorCode   string `json:"error_code"`
	Msg         string `json:"msg"`
	Message     string `json:"message"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (b authErrorBody) text() string {
	for _, s := range []string{b.Msg, b.Message, b.Description, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// authError converts a GoTrue failure into a classified BackendError.
func authError(op string, err error) *booking.BackendError {
	be := &booking.BackendError{Op: op, Err: err, Reason: err.Error()}

	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return be
	}

	be.Status, _ = strconv.Atoi(m[1])
	raw := strings.TrimSpace(m[2])

	var body authErrorBody
	if raw != "" && json.Unmarshal([]byte(raw), &body) == nil && body.text() != "" {
		be.Reason = body.text()
	} else if raw != "" {
		be.Reason = raw
	} else {
		be.Reason = strings.ToLower(http.StatusText(be.Status))
	}

	be.Kind = classify(body)
	if be.Kind != booking.KindUnknown {
		be.Reason = string(be.Kind)
	}
	return be
}

// classify maps GoTrue error codes and messages onto error kinds.
func classify(b authErrorBody) booking.ErrorKind {
	code := strings.ToLower(b.ErrorCode)
	text := strings.ToLower(strings.Join([]string{b.Msg, b.Message, b.Error, b.Description}, " "))

	switch {
	case strings.Contains(text, "not confirmed"):
		return booking.KindUnknown
	case code == "invalid_credentials", b.Error == "invalid_grant", strings.Contains(text, "invalid login credentials"):
		return booking.KindInvalidCredentials
	case code == "user_already_exists", code == "email_exists",
		strings.Contains(text, "already registered"), strings.Contains(text, "already been registered"):
		return booking.KindNameInUse
	case code == "weak_password", strings.Contains(text, "password should be"), strings.Contains(text, "password must be"):
		return booking.KindPasswordLength
	case code == "email_address_invalid", code == "user_not_found",
		strings.Contains(text, "validate email"), strings.Contains(text, "invalid email"):
		return booking.KindInvalidUsername
	}
	return booking.KindUnknown
}

// dataError wraps a PostgREST or Edge Function failure.
func dataError(op string, err error) *booking.BackendError {
	return &booking.BackendError{Op: op, Err: err, Reason: err.Error()}
}
