package rbac

import (
	"log/slog"
	"net/http"

	"github.com/lotworks/lotworks/internal/platform/httpx"
	"github.com/lotworks/lotworks/internal/session"
	"github.com/lotworks/lotworks/internal/shared"
)

// SessionSource exposes the current session snapshot to the middleware.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// Middleware wires authorization checks for HTTP handlers. Capability checks
// come from role flags; screen checks from the registry. The two never stand
// in for each other.
type Middleware struct {
	Sessions SessionSource
	Gate     *Gate
	Logger   *slog.Logger
}

// RequireAuthenticated rejects requests without a provider session. Degraded
// sessions (valid token, unresolved profile) pass this check.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Sessions.Snapshot().Authenticated() {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireScreen ensures the current user's role holds a grant for screen.
func (m Middleware) RequireScreen(screen shared.Screen) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := m.Sessions.Snapshot()
			if !snap.Authenticated() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			if snap.User == nil {
				// Degraded: no role to resolve grants from.
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "profile unresolved")
				return
			}
			ok, err := m.Gate.HasScreenAccess(r.Context(), snap.User.Role, screen)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("screen access check", slog.String("screen", screen.String()), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "screen not granted")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminTier ensures the current user's role carries CanAccessAdmin.
func (m Middleware) RequireAdminTier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := m.Sessions.Snapshot()
		if !snap.Authenticated() {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		if snap.User == nil || !FlagsFor(snap.User.Role).CanAccessAdmin {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin tier required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
