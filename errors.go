package booking

import (
	"errors"
	"fmt"
)

// Common errors returned by the access layer.
var (
	ErrNoPrincipal = errors.New("no backend identity for request")
	ErrNotFound    = errors.New("record not found")
)

// ErrorKind classifies a managed backend failure. Its values are the
// canonical reason strings the backend uses in its error messages.
type ErrorKind string

const (
	KindUnknown            ErrorKind = ""
	KindInvalidUsername    ErrorKind = "invalid username"
	KindInvalidCredentials ErrorKind = "invalid username/password"
	KindInvalidPassword    ErrorKind = "invalid password"
	KindNameInUse          ErrorKind = "name already in use"
	KindPasswordLength     ErrorKind = "password must be between 6 and 128 characters"
)

// BackendError is a failure reported by the managed backend.
type BackendError struct {
	Op     string    // access layer operation, e.g. "login"
	Status int       // HTTP status returned by the backend, 0 if none
	Kind   ErrorKind // KindUnknown when the failure could not be classified
	Reason string    // human readable reason
	Err    error     // underlying error
}

// Error renders the error as "<op>: <reason> (status NNN)" so that callers
// parsing the message text get the same reason and status.
func (e *BackendError) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Status >= 100 && e.Status <= 999 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, reason, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, reason)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
