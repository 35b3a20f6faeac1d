// Package api provides the HTTP API server and handlers for the TikTrack application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tiktrack/tiktrack-server/internal/billing"
	"github.com/tiktrack/tiktrack-server/internal/config"
	"github.com/tiktrack/tiktrack-server/internal/ratelimit"
	"github.com/tiktrack/tiktrack-server/internal/service"
	"github.com/tiktrack/tiktrack-server/internal/store"
	"github.com/tiktrack/tiktrack-server/internal/tracking"
)

// Credential endpoints get a tighter per-IP rate limit than the rest
// of the API to slow down password guessing.
const (
	loginRatePerSecond = 1
	loginRateBurst     = 5
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg          *config.Config
	store        *store.Store
	authService  *service.AuthService
	soundService *service.SoundService
	entitlements *service.EntitlementService
	checkout     *billing.CheckoutClient
	tracker      tracking.Tracker
	loginLimiter *ratelimit.KeyedRateLimiter
	router       *chi.Mux
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg *config.Config,
	store *store.Store,
	authService *service.AuthService,
	soundService *service.SoundService,
	entitlements *service.EntitlementService,
	checkout *billing.CheckoutClient,
	tracker tracking.Tracker,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:          cfg,
		store:        store,
		authService:  authService,
		soundService: soundService,
		entitlements: entitlements,
		checkout:     checkout,
		tracker:      tracker,
		loginLimiter: ratelimit.New(loginRatePerSecond, loginRateBurst),
		router:       chi.NewRouter(),
		logger:       logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.Server.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimitByIP).Post("/signup", s.handleSignUp)
			r.With(s.rateLimitByIP).Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.With(s.requireAuth).Post("/logout", s.handleLogout)
			r.With(s.requireAuth).Get("/sessions", s.handleListSessions)
		})

		// Protected user endpoints.
		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleGetCurrentUser)
		})

		// Sounds (require auth and an active subscription).
		r.Route("/sounds", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(s.requireEntitled)
			r.Get("/", s.handleListSounds)
			r.Post("/", s.handleAddSound)
			r.Get("/{id}", s.handleGetSound)
			r.Delete("/{id}", s.handleDeleteSound)
			r.Get("/{id}/trend", s.handleGetSoundTrend)
		})

		// Subscription status (require auth only, so the paywall
		// page itself can load).
		r.Route("/subscription", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleGetSubscription)
			r.Post("/refresh", s.handleRefreshEntitlement)
		})

		// Billing (require auth only).
		r.Route("/billing", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/checkout", s.handleCreateCheckout)
		})
	})
}
