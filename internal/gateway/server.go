// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/trackwell/trackwell/internal/platform/apperr"
	"github.com/trackwell/trackwell/internal/platform/config"
	"github.com/trackwell/trackwell/internal/platform/constants"
	"github.com/trackwell/trackwell/internal/platform/middleware"
	"github.com/trackwell/trackwell/internal/platform/respond"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server] for the gateway process.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Route Table

// NewServer constructs the gateway router.
//
// # Routing
//
//   - /api/v1/auth/*      : auth service, public. The auth service applies
//     its own authentication — the gateway must not gate login or register.
//   - /api/v1/users/*     : user service, behind [RequireIdentity].
//   - /api/v1/analytics/* : analytics service, behind [RequireIdentity].
//
// Unmatched paths answer 404 with the standard error envelope instead of
// chi's plain-text default.
func NewServer(context context.Context, cfg *config.GatewayConfig, log *slog.Logger, authClient *AuthClient) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicBarrier(log))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	liveness, readiness := newHealthHandlers(cfg, log)
	r.Get("/health", liveness)
	r.Get("/ready", readiness)

	// # Backend Relays
	authProxy := NewProxy("auth", cfg.AuthServiceURL, "", cfg.ProxyTimeout)
	userProxy := NewProxy("user", cfg.UserServiceURL, "", cfg.ProxyTimeout)
	analyticsProxy := NewProxy("analytics", cfg.AnalyticsServiceURL, "", cfg.ProxyTimeout)

	r.Route("/api/v1", func(api chi.Router) {
		api.Handle("/auth/*", authProxy)

		api.Group(func(protected chi.Router) {
			protected.Use(RequireIdentity(authClient))
			protected.Handle("/users/*", userProxy)
			protected.Handle("/analytics/*", analyticsProxy)
		})
	})

	r.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route"))
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Health Probes

// newHealthHandlers creates the /health and /ready handlers for the gateway.
//
// The gateway holds no database connections; readiness only confirms the
// process is configured with all backend URLs, which Load already enforced.
func newHealthHandlers(cfg *config.GatewayConfig, log *slog.Logger) (liveness, readiness http.HandlerFunc) {
	liveness = func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]string{"status": "ok"})
	}
	readiness = func(writer http.ResponseWriter, request *http.Request) {
		respond.OK(writer, map[string]any{
			"status": "ready",
			"routes": []string{"auth", "users", "analytics"},
		})
	}
	return liveness, readiness
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("gateway starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
