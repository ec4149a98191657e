package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"linkerai/backend/internal/audit"
	healthhandler "linkerai/backend/internal/health/handler"
	"linkerai/backend/internal/identity"
	profilehandler "linkerai/backend/internal/profile/handler"
	"linkerai/backend/internal/telemetry"
)

// Deps holds the dependencies of the HTTP router.
type Deps struct {
	// Onboarding serves the onboarding and profile routes. Required.
	Onboarding *profilehandler.Handler
	// Authenticator verifies Bearer credentials on every /v1 route. Required.
	Authenticator identity.Authenticator
	// Health serves /healthz. If nil, /healthz always reports SERVING.
	Health *healthhandler.Server
	// Audit records authentication failures. May be nil.
	Audit audit.AuditLogger
	// Telemetry receives one http_request event per authenticated request. May be nil.
	Telemetry telemetry.EventEmitter
	// AllowedOrigins is the CORS allow list; empty allows any origin.
	AllowedOrigins []string
	// Timeout bounds each request; zero disables it.
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewRouter returns the HTTP handler for the onboarding API.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	health := deps.Health
	if health == nil {
		health = healthhandler.NewServer(nil, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withClientIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if deps.Timeout > 0 {
		r.Use(middleware.Timeout(deps.Timeout))
	}

	r.Method(http.MethodGet, "/healthz", health)
	r.Group(func(r chi.Router) {
		r.Use(authenticate(deps.Authenticator, deps.Audit, logger))
		r.Use(requestTelemetry(deps.Telemetry, logger))
		deps.Onboarding.Routes(r)
	})
	return r
}
