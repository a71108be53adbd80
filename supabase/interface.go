package supabase

import (
	"context"
	"time"

	"github.com/creastat/booking"
)

// Backend is the access layer to the managed backend. It is the only
// component that talks to Supabase. The principal is passed on every call;
// a nil principal acts with the project API key only.
type Backend interface {
	// SignIn authenticates with email/password and loads the user's profile
	SignIn(ctx context.Context, email, password string) (*booking.Principal, *booking.User, error)

	// SignInAnonymously mints a new anonymous backend identity
	SignInAnonymously(ctx context.Context) (*booking.Principal, *booking.User, error)

	// Register creates an account, signs it in and stores its profile
	Register(ctx context.Context, reg booking.Registration) (*booking.Principal, booking.Record, error)

	// Refresh exchanges the principal's refresh token for new tokens
	Refresh(ctx context.Context, p *booking.Principal) (*booking.Principal, error)

	// SignOut revokes the principal's tokens
	SignOut(ctx context.Context, p *booking.Principal) error

	// GetProfile retrieves the principal's profile
	GetProfile(ctx context.Context, p *booking.Principal) (booking.Record, error)

	// EditProfile updates the principal's profile and returns the new version
	EditProfile(ctx context.Context, p *booking.Principal, edit booking.ProfileEdit) (booking.Record, error)

	// GetSiteData retrieves the customizable site content
	GetSiteData(ctx context.Context, p *booking.Principal) (booking.Record, error)

	// GetScheduleItems retrieves the schedule of availability
	GetScheduleItems(ctx context.Context, p *booking.Principal) ([]booking.Record, error)

	// GetReservations retrieves the principal's reservations
	GetReservations(ctx context.Context, p *booking.Principal) ([]booking.Record, error)

	// InsertReservation adds a reservation on behalf of userID, or without an owner when empty
	InsertReservation(ctx context.Context, p *booking.Principal, reservation booking.Record, userID string) (booking.Record, error)

	// AddScheduledItem adds an item to the schedule
	AddScheduledItem(ctx context.Context, p *booking.Principal, item booking.Record) (booking.Record, error)

	// RemoveScheduledItems clears the availability calendar
	RemoveScheduledItems(ctx context.Context, p *booking.Principal) (booking.Record, error)

	// EditHomeData replaces the home page content; nil resets it to defaults
	EditHomeData(ctx context.Context, p *booking.Principal, data booking.Record) (booking.Record, error)

	// Close releases resources
	Close() error
}

// Config holds Supabase connection configuration
type Config struct {
	URL        string
	APIKey     string
	Schema     string        // Default: public
	Timeout    time.Duration // Default: 30 seconds
	Tables     Tables
	SiteScreen string // site_data row served by GetSiteData. Default: home_general
}

// Tables names the PostgREST tables backing each record type
type Tables struct {
	Profiles     string // Default: profiles
	Site         string // Default: site_data
	Schedule     string // Default: schedule_items
	Reservations string // Default: reservations
}

// Edge Functions invoked for operations with server-side logic
const (
	fnAddScheduledItem     = "addScheduledItem"
	fnRemoveScheduledItems = "DeleteFromAvailabilityCalendar"
	fnEditHomeData         = "EditHomeData"
)

func (c Config) withDefaults() Config {
	if c.Schema == "" {
		c.Schema = "public"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.SiteScreen == "" {
		c.SiteScreen = "home_general"
	}
	if c.Tables.Profiles == "" {
		c.Tables.Profiles = "profiles"
	}
	if c.Tables.Site == "" {
		c.Tables.Site = "site_data"
	}
	if c.Tables.Schedule == "" {
		c.Tables.Schedule = "schedule_items"
	}
	if c.Tables.Reservations == "" {
		c.Tables.Reservations = "reservations"
	}
	return c
}
