// Package middlewares holds the chi middleware protecting checkout mutation
// endpoints. The guard chain — session format, rate limit, CSRF — runs in
// full before any handler logic, so a rejected request has no side effects.
package middlewares

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jcmexdev/checkout-engine/internal/security"
)

// HeaderSessionID carries the checkout session id on every guarded request.
const HeaderSessionID = "X-Checkout-Session"

// HeaderCSRFToken carries the CSRF token issued for the session.
const HeaderCSRFToken = "X-CSRF-Token"

type contextKey string

// ContextKeySessionID is the context key under which the validated session id
// is stored for handlers.
const ContextKeySessionID contextKey = "checkout_session_id"

// SessionFromContext returns the session id placed by the guard, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeySessionID).(string)
	return id
}

// Guard bundles the security collaborators the middleware needs.
type Guard struct {
	CSRF    *security.CSRFManager
	Limiter *security.RateLimiter
}

func NewGuard(csrf *security.CSRFManager, limiter *security.RateLimiter) *Guard {
	return &Guard{CSRF: csrf, Limiter: limiter}
}

// Protect wraps a mutation endpoint with the full guard chain for the named
// rate-limit operation.
func (g *Guard) Protect(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(HeaderSessionID)
			if !security.ValidSessionID(sessionID) {
				// A malformed session id is never trusted; without a
				// recognizable session there is nothing to validate a
				// CSRF token against.
				writeGuardError(w, http.StatusForbidden, "invalid_session", "session id is missing or malformed")
				return
			}

			decision, err := g.Limiter.Allow(r.Context(), operation, sessionID)
			if err != nil {
				slog.ErrorContext(r.Context(), "rate limiter failure", "operation", operation, "error", err)
				writeGuardError(w, http.StatusInternalServerError, "rate_limiter_error", "")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			if !decision.Allowed {
				writeGuardError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, retry after the reset time")
				return
			}

			ok, err := g.CSRF.Validate(r.Context(), sessionID, r.Header.Get(HeaderCSRFToken))
			if err != nil {
				slog.ErrorContext(r.Context(), "csrf validation failure", "error", err)
				writeGuardError(w, http.StatusInternalServerError, "csrf_error", "")
				return
			}
			if !ok {
				writeGuardError(w, http.StatusForbidden, "csrf_validation_failed", "missing, stale or foreign csrf token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySessionID, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeGuardError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
