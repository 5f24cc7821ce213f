package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/fareledger/internal/api/v1"
	"github.com/gosuda/fareledger/internal/config"
	"github.com/gosuda/fareledger/internal/server/middleware"
)

// Server is the stub backend: the accounts, invoices and ledger API over
// fixture data, behind the same headers and cookies as the real one.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the background
// work of the rate limiters.
func New(ctx context.Context, cfg *config.StubConfig, store v1.DataStore, authSvc v1.AuthService, jwtSecret string) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RealIP)
	router.Use(middleware.Correlation())
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			middleware.HeaderTenantID, middleware.HeaderCorrelationID, middleware.HeaderXSRFToken,
		},
		ExposedHeaders:   []string{middleware.HeaderCorrelationID, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Unauthenticated session routes, limited per client address.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

		authConfig := huma.DefaultConfig("fareledger auth API", "1.0.0")
		authAPI := humachi.New(r, authConfig)
		registerAuthRoutes(authAPI, authSvc, v1.CookieOptions{
			Secure:     cfg.CookieSecure,
			AccessTTL:  cfg.JWT.AccessTTL,
			RefreshTTL: cfg.JWT.RefreshTTL,
		})
	})

	// Tenant-scoped routes: /{tenantId}/...
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))
		r.Use(middleware.RequireTenant())
		r.Use(middleware.CSRF())
		r.Use(middleware.RateLimit(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

		apiConfig := huma.DefaultConfig("fareledger API", "1.0.0")
		// The auth API already publishes docs at the root.
		apiConfig.OpenAPIPath = ""
		apiConfig.DocsPath = ""
		apiConfig.SchemasPath = ""
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, store)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Handler exposes the router, for tests that serve it with httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("stub backend listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
