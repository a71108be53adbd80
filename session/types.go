package session

import (
	"time"

	"github.com/creastat/booking"
)

// Mirror records when each cached copy of backend data was last refreshed.
// A zero time means the field has never been populated.
type Mirror struct {
	ProfileAt      time.Time `json:"profile_at"`
	SiteAt         time.Time `json:"site_at"`
	ScheduleAt     time.Time `json:"schedule_at"`
	ReservationsAt time.Time `json:"reservations_at"`
}

// SessionData represents all serializable session state for one browser.
// It is a view of records owned by the managed backend, refreshed by the
// API handlers and discarded on logout or expiry.
//
// PERSISTED TO THE STORE:
// - ID: unique session identifier, carried in the signed cookie
// - CreatedAt, UpdatedAt: timestamps
// - Version: for optimistic locking across server instances
// - UserID: authenticated backend user; empty for anonymous visitors
// - Principal: backend tokens the session acts as (never sent to clients)
// - Profile, User, Site, Schedule, Reservations: mirrored backend data
// - ReservationCount, AccessCount: counters
type SessionData struct {
	ID               string             `json:"id"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Version          int64              `json:"version"` // Monotonically increasing for optimistic locking
	UserID           string             `json:"user_id,omitempty"`
	Principal        *booking.Principal `json:"principal,omitempty"`
	Profile          booking.Record     `json:"profile,omitempty"`
	User             *booking.User      `json:"user,omitempty"`
	Site             booking.Record     `json:"site,omitempty"`
	Schedule         []booking.Record   `json:"schedule,omitempty"`
	Reservations     []booking.Record   `json:"reservations,omitempty"`
	ReservationCount int                `json:"reservation_count"`
	AccessCount      int                `json:"access_count"`
	Mirror           Mirror             `json:"mirror"`
}

// Authenticated reports whether a non-anonymous user is signed in.
func (d *SessionData) Authenticated() bool {
	return d != nil && d.UserID != ""
}

// Clone returns a copy that can be mutated without affecting d.
// Mirrored records are shared; handlers replace them rather than edit in place.
func (d *SessionData) Clone() *SessionData {
	if d == nil {
		return nil
	}
	c := *d
	if d.Principal != nil {
		p := *d.Principal
		c.Principal = &p
	}
	if d.User != nil {
		u := *d.User
		c.User = &u
	}
	return &c
}
