package server

import (
	"log/slog"
	"net/http"

	"github.com/creastat/booking"
	"github.com/creastat/booking/session"
)

// requireSignedIn returns the caller's signed in session. It writes the
// response and returns nil when there is none.
func (h *Handler) requireSignedIn(w http.ResponseWriter, r *http.Request) *session.SessionData {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return nil
	}
	if !sess.Authenticated() {
		writeText(w, "Login required")
		return nil
	}
	h.touchSession(w, sess)
	return sess
}

// AddScheduledItem adds an item to the schedule of availability.
func (h *Handler) AddScheduledItem(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeServerError(w, r, "Failed to decode request", err)
		return
	}
	sess := h.requireSignedIn(w, r)
	if sess == nil {
		return
	}

	result, err := h.backend.AddScheduledItem(r.Context(), h.principal(w, r, sess), body)
	if err != nil {
		slog.Error("Failed to add scheduled item", "user_id", sess.UserID, "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	h.cache.Clear(scheduleCacheKey)
	writeJSON(w, http.StatusOK, result)
}

// RemoveScheduledItems clears the schedule of availability.
func (h *Handler) RemoveScheduledItems(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSignedIn(w, r)
	if sess == nil {
		return
	}

	result, err := h.backend.RemoveScheduledItems(r.Context(), h.principal(w, r, sess))
	if err != nil {
		slog.Error("Failed to remove scheduled items", "user_id", sess.UserID, "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	h.cache.Clear(scheduleCacheKey)
	writeJSON(w, http.StatusOK, result)
}

// EditHomeData replaces the home page content. An empty body resets it to
// the defaults.
func (h *Handler) EditHomeData(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeServerError(w, r, "Failed to decode request", err)
		return
	}
	sess := h.requireSignedIn(w, r)
	if sess == nil {
		return
	}

	var data booking.Record
	if len(body) > 0 {
		data = body
	}

	result, err := h.backend.EditHomeData(r.Context(), h.principal(w, r, sess), data)
	if err != nil {
		slog.Error("Failed to edit home data", "user_id", sess.UserID, "error", err)
		writeMessage(w, parsedMessage(err))
		return
	}

	h.cache.Clear(siteCacheKey)
	slog.Info("Home data updated", "user_id", sess.UserID, "reset", data == nil)
	writeJSON(w, http.StatusOK, result)
}
