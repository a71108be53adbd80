package server

import (
	"log/slog"
	"net/http"

	"github.com/creastat/booking"
	"github.com/creastat/booking/session"
)

// EditProfile updates the signed in user's profile.
func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeServerError(w, r, "Failed to decode request", err)
		return
	}
	if !hasAll(body, "email", "firstname", "phone") {
		writeText(w, "Ensure valid Name and Email")
		return
	}

	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	edit := booking.ProfileEdit{
		Email:     body.String("email"),
		FirstName: body.String("firstname"),
		LastName:  body.String("lastname"),
		Phone:     body.String("phone"),
	}

	profile, err := h.backend.EditProfile(r.Context(), h.principal(w, r, sess), edit)
	if err != nil {
		slog.Error("Failed to edit profile", "error", err)
		writeText(w, err.Error())
		return
	}

	if sess != nil {
		_, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
			d.Profile = profile
			if d.User != nil {
				d.User.Email = edit.Email
				d.User.Profile = profile
			}
			d.Mirror.ProfileAt = h.now()
		})
		if err != nil {
			writeServerError(w, r, "Session store error", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// GetProfile returns the signed in user's profile without touching the
// session.
//
// Deprecated: clients read the profile from the login response.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	profile, err := h.backend.GetProfile(r.Context(), h.principal(w, r, sess))
	if err != nil {
		slog.Error("Failed to get profile", "error", err)
		status, message := booking.ParseAuthenticationError(err)
		writeText(w, status+message)
		return
	}

	h.touchSession(w, sess)
	writeJSON(w, http.StatusOK, profile)
}
