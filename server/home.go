package server

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/creastat/booking/session"
)

// Home serves the front-end entry page and counts visits of signed in users.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		writeServerError(w, r, "Session store error", err)
		return
	}

	if sess.Authenticated() {
		if _, err := h.saveSession(w, r, sess.ID, func(d *session.SessionData) {
			d.AccessCount++
		}); err != nil {
			writeServerError(w, r, "Session store error", err)
			return
		}
	} else {
		h.touchSession(w, sess)
	}

	http.ServeFile(w, r, filepath.Join(h.cfg.StaticAppPath, "index.html"))
}

// Static serves the front-end bundle.
func (h *Handler) Static() http.Handler {
	return http.FileServer(http.Dir(h.cfg.StaticAppPath))
}

// Health reports whether the session store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := map[string]string{
		"status":        "ok",
		"session_store": "ok",
	}
	code := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		resp["status"] = "degraded"
		resp["session_store"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, resp)
}
