package booking

import (
	"fmt"
	"time"
)

// Record is an opaque document owned by the managed backend: a profile,
// reservation, schedule item or site data entry. Its schema is enforced
// remotely; this service only looks at a few top-level keys.
type Record map[string]any

// String returns the value at key formatted as a string, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Principal is the backend identity a request acts as.
// Tokens are never exposed to the client.
type Principal struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Anonymous    bool      `json:"anonymous"`
}

// NeedsRefresh reports whether the access token expires within a minute.
func (p *Principal) NeedsRefresh(now time.Time) bool {
	if p == nil || p.RefreshToken == "" || p.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(p.ExpiresAt.Add(-time.Minute))
}

// User is the client-safe view of a signed in backend user.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous"`
	Profile   Record `json:"customData,omitempty"`
}

// Registration holds the fields needed to create an account and its profile.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Phone     string `json:"phone,omitempty"`
}

// ProfileEdit holds the editable profile fields.
type ProfileEdit struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname,omitempty"`
	Phone     string `json:"phone"`
}
