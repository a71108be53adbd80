package server

import (
	"net/http"
	"time"

	"github.com/creastat/booking/middleware"
)

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path relative to the base path
	Handler http.HandlerFunc // Handler function
	Auth    bool             // rate limited as a sign-in endpoint
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Auth
		{Method: http.MethodPost, Path: "/logout", Handler: h.Logout},
		{Method: http.MethodPost, Path: "/registerWithEmail", Handler: h.RegisterWithEmail, Auth: true},
		{Method: http.MethodPost, Path: "/login", Handler: h.Login, Auth: true},
		{Method: http.MethodPost, Path: "/loginAnonymously", Handler: h.LoginAnonymously, Auth: true},

		// Profile
		{Method: http.MethodPut, Path: "/editProfile", Handler: h.EditProfile},
		{Method: http.MethodGet, Path: "/getProfile", Handler: h.GetProfile},

		// Site data and schedule
		{Method: http.MethodGet, Path: "/getSiteData", Handler: h.GetSiteData},
		{Method: http.MethodGet, Path: "/getScheduleItems", Handler: h.GetScheduleItems},
		{Method: http.MethodPost, Path: "/addScheduledItem", Handler: h.AddScheduledItem},
		{Method: http.MethodDelete, Path: "/scheduledItems", Handler: h.RemoveScheduledItems},
		{Method: http.MethodPut, Path: "/editHomeData", Handler: h.EditHomeData},

		// Reservations
		{Method: http.MethodGet, Path: "/getReservations", Handler: h.GetReservations},
		{Method: http.MethodPost, Path: "/insertReservation", Handler: h.InsertReservation},

		// Health
		{Method: http.MethodGet, Path: "/health", Handler: h.Health},

		// Entry page
		{Method: http.MethodGet, Path: "/{$}", Handler: h.Home},
	}
}

// NewRouter registers every route under the configured base path. Paths
// without a route fall through to the static front-end bundle.
func NewRouter(h *Handler) http.Handler {
	base := h.cfg.BasePath

	var limiter *middleware.RateLimiter
	if h.cfg.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(h.cfg.RateLimitAuth, time.Minute)
	}

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		chain := []func(http.HandlerFunc) http.HandlerFunc{
			middleware.LogRequest,
			middleware.CORS(h.cfg.CORSAllowedOrigins),
		}
		if route.Auth {
			chain = append(chain, middleware.RateLimit(limiter, middleware.ClientIP))
		}
		mux.HandleFunc(route.Method+" "+base+route.Path, middleware.Chain(route.Handler, chain...))
	}

	// Preflight requests for any API path
	mux.HandleFunc("OPTIONS "+base+"/", middleware.CORS(h.cfg.CORSAllowedOrigins)(func(w http.ResponseWriter, r *http.Request) {}))

	static := http.StripPrefix(base, h.Static())
	mux.Handle("GET "+base+"/", static)

	return mux
}
