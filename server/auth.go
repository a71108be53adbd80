package server

import (
	"log/slog"
	"net/http"

	"github.com/creastat/booking"
	"github.com/creastat/booking/session"
)

// bootstrapResponse is returned by LoginAnonymously.
type bootstrapResponse struct {
	User         *booking.User    `json:"user"`
	Site         booking.Record   `json:"site"`
	Schedule     []booking.Record `json:"schedule"`
	Reservations []booking.Record `json:"reservations"`
	Profile      booking.Record   `json:"profile"`
}

// Logout revokes the backend tokens, destroys the session and redirects to
// the home page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	if sess != nil {
		if err := h.backend.SignOut(r.Context(), sess.Principal); err != nil {
			slog.Warn("Failed to revoke backend session", "user_id", sess.UserID, "error", err)
		}
		if err := h.store.Delete(r.Context(), sess.ID); err != nil {
			writeServerError(w, r, "Session store error", err)
			return
		}
		slog.Info("Session destroyed", "user_id", sess.UserID)
	}

	h.clearCookie(w)
	http.Redirect(w, r, h.cfg.CookiePath(), http.StatusFound)
}

// RegisterWithEmail creates an account and signs it in.
func (h *Handler) RegisterWithEmail(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeServerError(w, r, "Failed to decode request", err)
		return
	}
	if !hasAll(body, "email", "password", "firstname", "lastname") {
		writeText(w, "Invalid Email/Password pair")
		return
	}

	reg := booking.Registration{
		Email:     body.String("email"),
		Password:  body.String("password"),
		FirstName: body.String("firstname"),
		LastName:  body.String("lastname"),
		Phone:     body.String("phone"),
	}

	p, profile, err := h.backend.Register(r.Context(), reg)
	if err != nil {
		slog.Error("Registration failed", "error", err)
		writeMessage(w, booking.NormalizeError(err))
		return
	}

	if userID := profile.String("userid"); userID != "" {
		user := &booking.User{ID: p.UserID, Email: reg.Email, Profile: profile}
		_, err := h.startSession(w, r, func(d *session.SessionData) {
			d.Principal = p
			d.Profile = profile
			d.UserID = userID
			d.AccessCount = 1
			d.User = user
			d.Mirror.ProfileAt = h.now()
		})
		if err != nil {
			writeServerError(w, r, "Session store error", err)
			return
		}
		slog.Info("New user registered", "user_id", userID)
	}

	writeJSON(w, http.StatusOK, profile)
}

// Login signs in with email and password and mirrors the user's profile and
// reservations into a new session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeServerError(w, r, "Failed to decode request", err)
		return
	}
	if !hasAll(body, "email", "password") {
		writeText(w, "Invalid Email/Password pair")
		return
	}

	p, user, err := h.backend.SignIn(r.Context(), body.String("email"), body.String("password"))
	if err != nil {
		slog.Error("Login failed", "error", err)
		writeMessage(w, booking.NormalizeError(err))
		return
	}

	reservations, err := h.backend.GetReservations(r.Context(), p)
	if err != nil {
		slog.Warn("Failed to load reservations after login", "user_id", p.UserID, "error", err)
		reservations = []booking.Record{}
	}

	userID := user.Profile.String("userid")
	if userID == "" {
		userID = user.ID
	}

	_, err = h.startSession(w, r, func(d *session.SessionData) {
		d.Principal = p
		d.Profile = user.Profile
		d.UserID = userID
		d.AccessCount = 1
		d.User = user
		d.Mirror.ProfileAt = h.now()
		h.mirrorReservations(d, reservations)
	})
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	slog.Info("User logged in", "user_id", userID)
	writeJSON(w, http.StatusOK, user)
}

// LoginAnonymously returns the data a visitor needs to render the site.
// A signed in session gets its mirrored data refreshed; otherwise the
// session acts as an anonymous backend identity, minted on first use.
func (h *Handler) LoginAnonymously(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	if sess.Authenticated() && sess.AccessCount > 0 {
		h.refreshSignedIn(w, r, sess)
		return
	}

	p := h.principal(w, r, sess)
	var user *booking.User
	if p == nil {
		p, user, err = h.backend.SignInAnonymously(r.Context())
		if err != nil {
			slog.Error("Anonymous login failed", "error", err)
			writeMessage(w, booking.NormalizeError(err))
			return
		}
	} else {
		user = &booking.User{ID: p.UserID, Anonymous: p.Anonymous}
	}

	site, err := h.siteData(r.Context())
	if err != nil {
		slog.Error("Failed to load site data", "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}
	schedule, err := h.scheduleItems(r.Context())
	if err != nil {
		slog.Error("Failed to load schedule items", "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	var id string
	if sess != nil {
		id = sess.ID
	}
	if _, err := h.saveSession(w, r, id, func(d *session.SessionData) {
		d.Principal = p
	}); err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	writeJSON(w, http.StatusOK, bootstrapResponse{
		User:     user,
		Site:     site,
		Schedule: schedule,
	})
}

func (h *Handler) refreshSignedIn(w http.ResponseWriter, r *http.Request, sess *session.SessionData) {
	p := h.principal(w, r, sess)

	reservations, err := h.backend.GetReservations(r.Context(), p)
	if err != nil {
		slog.Error("Failed to load reservations", "user_id", sess.UserID, "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}
	site, err := h.siteData(r.Context())
	if err != nil {
		slog.Error("Failed to load site data", "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}
	schedule, err := h.scheduleItems(r.Context())
	if err != nil {
		slog.Error("Failed to load schedule items", "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	updated, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
		now := h.now()
		h.mirrorReservations(d, reservations)
		d.Site = site
		d.Schedule = schedule
		d.Mirror.SiteAt = now
		d.Mirror.ScheduleAt = now
	})
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	writeJSON(w, http.StatusOK, bootstrapResponse{
		User:         updated.User,
		Site:         site,
		Schedule:     schedule,
		Reservations: reservations,
		Profile:      updated.Profile,
	})
}
