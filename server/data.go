package server

import (
	"log/slog"
	"net/http"

	"github.com/creastat/booking/session"
)

// GetSiteData returns the customizable site content, mirroring it into a
// signed in session.
func (h *Handler) GetSiteData(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	site, err := h.siteData(r.Context())
	if err != nil {
		slog.Error("Failed to load site data", "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	if sess.Authenticated() {
		if _, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
			d.Site = site
			d.Mirror.SiteAt = h.now()
		}); err != nil {
			writeServerError(w, r, "Session store error", err)
			return
		}
	} else {
		h.touchSession(w, sess)
	}

	writeJSON(w, http.StatusOK, site)
}

// GetScheduleItems returns the schedule of availability, mirroring it into
// a signed in session.
func (h *Handler) GetScheduleItems(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	schedule, err := h.scheduleItems(r.Context())
	if err != nil {
		slog.Error("Failed to load schedule items", "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	if sess.Authenticated() {
		if _, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
			d.Schedule = schedule
			d.Mirror.ScheduleAt = h.now()
		}); err != nil {
			writeServerError(w, r, "Session store error", err)
			return
		}
	} else {
		h.touchSession(w, sess)
	}

	writeJSON(w, http.StatusOK, schedule)
}

// GetReservations returns the caller's reservations, mirroring them and
// their count into a signed in session.
func (h *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	reservations, err := h.backend.GetReservations(r.Context(), h.principal(w, r, sess))
	if err != nil {
		slog.Error("Failed to load reservations", "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	if sess.Authenticated() {
		if _, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
			h.mirrorReservations(d, reservations)
		}); err != nil {
			writeServerError(w, r, "Session store error", err)
			return
		}
	} else {
		h.touchSession(w, sess)
	}

	writeJSON(w, http.StatusOK, reservations)
}

// InsertReservation books a reservation. Signed in users get it attributed
// and their mirrored reservations refreshed; guest bookings carry no user.
func (h *Handler) InsertReservation(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeServerError(w, r, "Failed to decode request", err)
		return
	}
	if !hasAll(body, "firstName", "lastName", "phone") {
		writeText(w, "Invalid Email/Password/phone information")
		return
	}

	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}
	var userID string
	if sess.Authenticated() {
		userID = sess.UserID
	}

	p := h.principal(w, r, sess)
	result, err := h.backend.InsertReservation(r.Context(), p, body, userID)
	if err != nil {
		slog.Error("Failed to insert reservation", "user_id", userID, "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	if userID == "" {
		h.touchSession(w, sess)
		slog.Info("Guest reservation added")
		writeJSON(w, http.StatusOK, result)
		return
	}

	reservations, err := h.backend.GetReservations(r.Context(), p)
	if err != nil {
		slog.Warn("Failed to refresh reservations", "user_id", userID, "error", err)
		h.touchSession(w, sess)
	} else if _, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
		h.mirrorReservations(d, reservations)
	}); err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	slog.Info("Reservation added", "user_id", userID)
	writeJSON(w, http.StatusOK, result)
}
