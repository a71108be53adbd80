package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/creastat/booking"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	restPath      = "/rest/v1"
	functionsPath = "/functions/v1"
)

// Client implements the Backend interface using Supabase
type Client struct {
	client    *supabase.Client
	auth      gotrue.Client
	transport http.RoundTripper
	cfg       Config
	now       func() time.Time
}

// New creates a new Supabase client
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	cfg = cfg.withDefaults()
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout

	return &Client{
		client:    client,
		auth:      client.Auth.WithClient(http.Client{Transport: transport, Timeout: cfg.Timeout}),
		transport: transport,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

// SignIn authenticates with email/password and loads the user's profile
func (c *Client) SignIn(ctx context.Context, email, password string) (*booking.Principal, *booking.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	token, err := c.auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, nil, authError("login", err)
	}

	p := c.principal(token.Session, false)
	user := toUser(token.Session.User, false)

	profile, err := c.GetProfile(ctx, p)
	switch {
	case err == nil:
		user.Profile = profile
	case errors.Is(err, booking.ErrNotFound):
	default:
		slog.Warn("Failed to load profile after login", "user_id", p.UserID, "error", err)
	}

	return p, user, nil
}

// SignInAnonymously mints a new anonymous backend identity
func (c *Client) SignInAnonymously(ctx context.Context) (*booking.Principal, *booking.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	resp, err := c.auth.Signup(types.SignupRequest{})
	if err != nil {
		return nil, nil, authError("loginAnonymously", err)
	}
	if resp.Session.AccessToken == "" {
		return nil, nil, &booking.BackendError{Op: "loginAnonymously", Reason: "anonymous sign-ins are disabled"}
	}

	// Depending on server settings the user is returned at the top level or
	// inside the session.
	if resp.Session.User.ID == uuid.Nil {
		resp.Session.User = resp.User
	}
	return c.principal(resp.Session, true), toUser(resp.Session.User, true), nil
}

// Register creates an account, signs it in and stores its profile
func (c *Client) Register(ctx context.Context, reg booking.Registration) (*booking.Principal, booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	_, err := c.auth.Signup(types.SignupRequest{
		Email:    reg.Email,
		Password: reg.Password,
		Data: map[string]interface{}{
			"firstname": reg.FirstName,
			"lastname":  reg.LastName,
		},
	})
	if err != nil {
		return nil, nil, authError("register", err)
	}

	token, err := c.auth.SignInWithEmailPassword(reg.Email, reg.Password)
	if err != nil {
		return nil, nil, authError("login", err)
	}
	p := c.principal(token.Session, false)

	profile := booking.Record{
		"userid":    p.UserID,
		"email":     reg.Email,
		"firstname": reg.FirstName,
		"lastname":  reg.LastName,
		"phone":     reg.Phone,
	}

	var rows []booking.Record
	_, err = c.rest(ctx, p).From(c.cfg.Tables.Profiles).
		Insert(profile, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, nil, dataError("register", err)
	}

	stored, err := c.GetProfile(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return p, stored, nil
}

// Refresh exchanges the principal's refresh token for new tokens
func (c *Client) Refresh(ctx context.Context, p *booking.Principal) (*booking.Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == nil || p.RefreshToken == "" {
		return nil, booking.ErrNoPrincipal
	}

	token, err := c.auth.RefreshToken(p.RefreshToken)
	if err != nil {
		return nil, authError("refresh", err)
	}
	return c.principal(token.Session, p.Anonymous), nil
}

// SignOut revokes the principal's tokens
func (c *Client) SignOut(ctx context.Context, p *booking.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil || p.AccessToken == "" {
		return nil
	}
	if err := c.auth.WithToken(p.AccessToken).Logout(); err != nil {
		return authError("logout", err)
	}
	return nil
}

// GetProfile retrieves the principal's profile
func (c *Client) GetProfile(ctx context.Context, p *booking.Principal) (booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == nil || p.UserID == "" {
		return nil, booking.ErrNoPrincipal
	}

	var rows []booking.Record
	_, err := c.rest(ctx, p).From(c.cfg.Tables.Profiles).
		Select("*", "", false).
		Eq("userid", p.UserID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, dataError("getProfile", err)
	}
	if len(rows) == 0 {
		return nil, booking.ErrNotFound
	}
	return rows[0], nil
}

// EditProfile updates the principal's profile and returns the new version
func (c *Client) EditProfile(ctx context.Context, p *booking.Principal, edit booking.ProfileEdit) (booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == nil || p.UserID == "" {
		return nil, booking.ErrNoPrincipal
	}

	changes := booking.Record{}
	for key, value := range map[string]string{
		"email":     edit.Email,
		"firstname": edit.FirstName,
		"lastname":  edit.LastName,
		"phone":     edit.Phone,
	} {
		if value != "" {
			changes[key] = value
		}
	}

	var rows []booking.Record
	_, err := c.rest(ctx, p).From(c.cfg.Tables.Profiles).
		Update(changes, "representation", "").
		Eq("userid", p.UserID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, dataError("editProfile", err)
	}
	if len(rows) == 0 {
		return nil, booking.ErrNotFound
	}
	return rows[0], nil
}

// GetSiteData retrieves the customizable site content
func (c *Client) GetSiteData(ctx context.Context, p *booking.Principal) (booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []booking.Record
	_, err := c.rest(ctx, p).From(c.cfg.Tables.Site).
		Select("*", "", false).
		Eq("screen", c.cfg.SiteScreen).
		ExecuteTo(&rows)
	if err != nil {
		return nil, dataError("getSiteData", err)
	}
	if len(rows) == 0 {
		return booking.Record{}, nil
	}
	return rows[0], nil
}

// GetScheduleItems retrieves the schedule of availability
func (c *Client) GetScheduleItems(ctx context.Context, p *booking.Principal) ([]booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := []booking.Record{}
	_, err := c.rest(ctx, p).From(c.cfg.Tables.Schedule).
		Select("*", "", false).
		ExecuteTo(&rows)
	if err != nil {
		return nil, dataError("getScheduleItems", err)
	}
	return rows, nil
}

// GetReservations retrieves the principal's reservations
func (c *Client) GetReservations(ctx context.Context, p *booking.Principal) ([]booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == nil || p.UserID == "" {
		return []booking.Record{}, nil
	}

	rows := []booking.Record{}
	_, err := c.rest(ctx, p).From(c.cfg.Tables.Reservations).
		Select("*", "", false).
		Eq("userid", p.UserID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, dataError("getReservations", err)
	}
	return rows, nil
}

// InsertReservation adds a reservation on behalf of userID; an empty userID
// books it without an owner.
func (c *Client) InsertReservation(ctx context.Context, p *booking.Principal, reservation booking.Record, userID string) (booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := reservation.Clone()
	if row == nil {
		row = booking.Record{}
	}
	row["dateAdded"] = c.now().UTC().Format(time.RFC3339)
	if userID != "" {
		row["userid"] = userID
	}

	var rows []booking.Record
	_, err := c.rest(ctx, p).From(c.cfg.Tables.Reservations).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, dataError("insertReservation", err)
	}
	if len(rows) == 0 {
		return row, nil
	}
	return rows[0], nil
}

// AddScheduledItem adds an item to the schedule
func (c *Client) AddScheduledItem(ctx context.Context, p *booking.Principal, item booking.Record) (booking.Record, error) {
	return c.invoke(ctx, "addScheduledItem", p, fnAddScheduledItem, item)
}

// RemoveScheduledItems clears the availability calendar
func (c *Client) RemoveScheduledItems(ctx context.Context, p *booking.Principal) (booking.Record, error) {
	return c.invoke(ctx, "removeScheduledItems", p, fnRemoveScheduledItems, booking.Record{})
}

// EditHomeData replaces the home page content; nil resets it to defaults
func (c *Client) EditHomeData(ctx context.Context, p *booking.Principal, data booking.Record) (booking.Record, error) {
	if data == nil {
		data = booking.Record{}
	}
	return c.invoke(ctx, "editHomeData", p, fnEditHomeData, data)
}

// Close releases resources
func (c *Client) Close() error {
	return nil
}

// rest returns a PostgREST client acting as the principal, or with the
// project API key when there is none. Clients carry per-principal headers so
// they are not shared; the connection pool is.
func (c *Client) rest(ctx context.Context, p *booking.Principal) *postgrest.Client {
	headers := map[string]string{"apikey": c.cfg.APIKey}
	rc := postgrest.NewClient(c.cfg.URL+restPath, c.cfg.Schema, headers).SetAuthToken(c.token(p))
	rc.Transport.Parent = requestTransport{ctx: ctx, timeout: c.cfg.Timeout, base: c.transport}
	return rc
}

// invoke POSTs payload to the named Edge Function; functions-go has no
// exported invoke at the pinned version.
func (c *Client) invoke(ctx context.Context, op string, p *booking.Principal, name string, payload any) (booking.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, dataError(op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+functionsPath+"/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, dataError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token(p))
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := (&http.Client{Transport: c.transport}).Do(req)
	if err != nil {
		return nil, dataError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dataError(op, err)
	}

	result, err := decodeFunctionResult(op, string(raw))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &booking.BackendError{
			Op:     op,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("edge function %s returned status %d", name, resp.StatusCode),
		}
	}
	return result, nil
}

func (c *Client) token(p *booking.Principal) string {
	if p != nil && p.AccessToken != "" {
		return p.AccessToken
	}
	return c.cfg.APIKey
}

func (c *Client) principal(s types.Session, anonymous bool) *booking.Principal {
	p := &booking.Principal{
		UserID:       s.User.ID.String(),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Anonymous:    anonymous,
	}
	switch {
	case s.ExpiresAt > 0:
		p.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		p.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return p
}

func toUser(u types.User, anonymous bool) *booking.User {
	return &booking.User{
		ID:        u.ID.String(),
		Email:     u.Email,
		Anonymous: anonymous,
	}
}

// decodeFunctionResult turns an Edge Function body into a record. A body of
// the form {"error": "..."} is reported as a failure.
func decodeFunctionResult(op, body string) (booking.Record, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return booking.Record{}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return booking.Record{"result": body}, nil
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return booking.Record{"result": v}, nil
	}
	if msg, ok := obj["error"].(string); ok && msg != "" {
		return nil, &booking.BackendError{Op: op, Reason: msg}
	}
	return booking.Record(obj), nil
}

// Compile-time interface check
var _ Backend = (*Client)(nil)
