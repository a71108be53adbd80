package server

import (
	"time"

	"github.com/creastat/booking/cache"
	"github.com/creastat/booking/config"
	"github.com/creastat/booking/session"
	"github.com/creastat/booking/supabase"
)

// Shared cache keys for user-independent backend data
const (
	siteCacheKey     = "site"
	scheduleCacheKey = "schedule"
)

// Handler serves the booking API. Every stateful endpoint calls the backend
// with the principal stored in the caller's session and mirrors selected
// results back into that session.
type Handler struct {
	cfg     *config.Config
	backend supabase.Backend
	store   session.Store
	cache   *cache.Cache
	secret  []byte
	now     func() time.Time
}

// NewHandler creates a Handler
func NewHandler(cfg *config.Config, backend supabase.Backend, store session.Store, c *cache.Cache) *Handler {
	return &Handler{
		cfg:     cfg,
		backend: backend,
		store:   store,
		cache:   c,
		secret:  []byte(cfg.SessionsSecret),
		now:     time.Now,
	}
}
