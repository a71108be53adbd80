package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/creastat/booking"
	"github.com/creastat/booking/session"
)

// sessionID returns the verified session ID carried by the request cookie,
// or "" when there is none.
func (h *Handler) sessionID(r *http.Request) string {
	c, err := r.Cookie(h.cfg.SessionsName)
	if err != nil || c.Value == "" {
		return ""
	}
	id, err := session.Verify(h.secret, c.Value)
	if err != nil {
		slog.Debug("Ignoring session cookie", "error", err)
		return ""
	}
	return id
}

// loadSession returns the caller's live session, or nil.
func (h *Handler) loadSession(r *http.Request) (*session.SessionData, error) {
	id := h.sessionID(r)
	if id == "" {
		return nil, nil
	}
	return h.store.Get(r.Context(), id)
}

// saveSession applies fn to the session with the given id, creating it when
// missing, and re-issues the cookie.
func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, id string, fn session.MutateFunc) (*session.SessionData, error) {
	data, err := session.Apply(r.Context(), h.store, id, fn)
	if err != nil {
		return nil, err
	}
	h.setCookie(w, data.ID)
	return data, nil
}

// startSession replaces the caller's session with a new one, so a session
// ID issued before sign-in is never reused after it.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, fn session.MutateFunc) (*session.SessionData, error) {
	if old := h.sessionID(r); old != "" {
		if err := h.store.Delete(r.Context(), old); err != nil {
			slog.Warn("Failed to delete previous session", "error", err)
		}
	}
	return h.saveSession(w, r, "", fn)
}

// touchSession re-issues the cookie of a live session so its expiry slides.
func (h *Handler) touchSession(w http.ResponseWriter, sess *session.SessionData) {
	if sess != nil {
		h.setCookie(w, sess.ID)
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionsName,
		Value:    session.Sign(h.secret, id),
		Path:     h.cfg.CookiePath(),
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionsName,
		Value:    "",
		Path:     h.cfg.CookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// principal returns the backend identity of sess, refreshing it once when
// the access token is about to expire. A failed refresh keeps the old
// tokens and lets the backend reject them.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request, sess *session.SessionData) *booking.Principal {
	if sess == nil || sess.Principal == nil {
		return nil
	}
	p := sess.Principal
	if !p.NeedsRefresh(h.now()) {
		return p
	}

	fresh, err := h.backend.Refresh(r.Context(), p)
	if err != nil {
		slog.Warn("Failed to refresh backend session", "user_id", p.UserID, "error", err)
		return p
	}

	if _, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
		d.Principal = fresh
	}); err != nil {
		slog.Warn("Failed to store refreshed backend session", "user_id", p.UserID, "error", err)
	}
	sess.Principal = fresh
	return fresh
}

// mirrorReservations stores the most recent reservations in d. The count
// keeps the full length of list.
func (h *Handler) mirrorReservations(d *session.SessionData, list []booking.Record) {
	if list == nil {
		list = []booking.Record{}
	}
	d.Reservations = booking.TruncateRecent(list, h.cfg.SessionMaxReservations)
	d.ReservationCount = len(list)
	d.Mirror.ReservationsAt = h.now()
}

// siteData returns the site content through the shared cache. The load is
// shared by every waiting request, so it runs with the project API key and a
// context that outlives any single caller.
func (h *Handler) siteData(ctx context.Context) (booking.Record, error) {
	ctx = context.WithoutCancel(ctx)
	v, err := h.cache.Load(siteCacheKey, func() (any, error) {
		return h.backend.GetSiteData(ctx, nil)
	})
	if err != nil {
		return nil, err
	}
	return v.(booking.Record), nil
}

// scheduleItems returns the schedule through the shared cache, loaded the
// same way as siteData.
func (h *Handler) scheduleItems(ctx context.Context) ([]booking.Record, error) {
	ctx = context.WithoutCancel(ctx)
	v, err := h.cache.Load(scheduleCacheKey, func() (any, error) {
		return h.backend.GetScheduleItems(ctx, nil)
	})
	if err != nil {
		return nil, err
	}
	return v.([]booking.Record), nil
}
