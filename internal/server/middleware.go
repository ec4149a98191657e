package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"linkerai/backend/internal/audit"
	"linkerai/backend/internal/identity"
	profilehandler "linkerai/backend/internal/profile/handler"
	"linkerai/backend/internal/telemetry"
)

const bearerPrefix = "bearer "

// EventHTTPRequest is the telemetry event type emitted for each authenticated request.
const EventHTTPRequest = "http_request"

type contextKey struct{ name string }

var clientIPKey = contextKey{"client_ip"}

// ClientIP returns the client IP stored by the router, or "" if unset. It is the audit IPExtractor.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// withClientIP stores the host part of RemoteAddr (already rewritten by middleware.RealIP) in the context.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey, ip)))
	})
}

// authenticate validates the Bearer credential and stores the principal in the request context.
// Requests without a valid credential get 401 and an auth_failure audit entry.
func authenticate(auth identity.Authenticator, auditLogger audit.AuditLogger, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			var p *identity.Principal
			var err error
			if token != "" {
				p, err = auth.Authenticate(r.Context(), token)
			}
			if token == "" || err != nil || p == nil {
				if err != nil {
					logger.Debug("authentication failed", zap.Error(err))
				}
				if auditLogger != nil {
					ar := routeAction(r)
					auditLogger.LogEvent(r.Context(), "", audit.ActionAuthFailure, ar.Resource,
						map[string]string{"method": r.Method, "path": r.URL.Path})
				}
				profilehandler.WriteJSON(w, http.StatusUnauthorized, profilehandler.Response{
					Error: "missing or invalid authorization",
					Code:  "unauthenticated",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), p)))
		})
	}
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// requestTelemetry emits an http_request event after each request. Best-effort: the emit runs
// asynchronously and never affects the response. A nil emitter disables it.
func requestTelemetry(emitter telemetry.EventEmitter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if emitter == nil {
				return
			}
			ar := routeAction(r)
			ev := telemetry.NewEvent(EventHTTPRequest, "", "http_middleware", map[string]string{
				"method":      r.Method,
				"route":       chi.RouteContext(r.Context()).RoutePattern(),
				"action":      ar.Action,
				"resource":    ar.Resource,
				"status_code": strconv.Itoa(ww.Status()),
				"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
				"client_ip":   ClientIP(r.Context()),
			})
			if p := identity.PrincipalFromContext(r.Context()); p != nil {
				ev.IdentityID = p.IdentityID
				ev.SessionID = p.SessionID
			}
			telemetry.EmitAsync(emitter, ev, logger)
		})
	}
}

// accessLog logs one line per request at debug level, and at warn level for 5xx responses.
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("client_ip", ClientIP(r.Context())),
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Warn("http request", fields...)
				return
			}
			logger.Debug("http request", fields...)
		})
	}
}

func routeAction(r *http.Request) audit.ActionResource {
	pattern := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			pattern = p
		}
	}
	return audit.ParseRoute(r.Method, pattern, chi.URLParam(r, "role"))
}
