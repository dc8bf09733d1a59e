// Package middleware contains HTTP middleware for the LeadBoost API.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with Stack.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/leadboost/leadboost/internal/auth"
	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/handler"
	"github.com/leadboost/leadboost/internal/service"
)

const (
	// SessionCookieName is the cookie that carries the session token.
	SessionCookieName = "leadboost_session"

	// SessionCookiePath ensures the cookie is sent with all requests.
	SessionCookiePath = "/"

	// SessionCookieMaxAge matches service.SessionDuration (7 days).
	SessionCookieMaxAge = 7 * 24 * 60 * 60
)

// AuthMiddleware resolves session credentials to users.
type AuthMiddleware struct {
	users    service.UserService
	logger   *slog.Logger
	isSecure bool // Secure cookie flag, true in production
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(users service.UserService, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		users:    users,
		logger:   logger,
		isSecure: isSecure,
	}
}

// WithUser attempts to resolve the session cookie to a user and stores the
// result in the request context. The lookup happens on every request so
// role changes (an admin demoting a user, a deactivation) apply
// immediately; roles are never cached across requests.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetBySessionToken(r.Context(), cookie.Value)
		if err != nil {
			// Invalid, expired, or deactivated - clear the cookie and
			// continue unauthenticated
			ClearSessionCookie(w, m.isSecure)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// RequireUser rejects unauthenticated requests with 401.
// Must run after WithUser.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			handler.ErrorResponse(w, r, m.logger, domain.Unauthorized("auth.require_user", "Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers whose freshly resolved role is not admin.
// Must run after RequireUser.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.ErrorResponse(w, r, m.logger, domain.Unauthorized("auth.require_admin", "Authentication required"))
			return
		}
		if !user.IsAdmin() {
			handler.ErrorResponse(w, r, m.logger, domain.Forbidden("auth.require_admin", "Admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie sets the session cookie on the response.
//
// HttpOnly blocks script access; SameSite=Lax prevents CSRF while allowing
// normal navigation; Secure is enabled in production.
func SetSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     SessionCookiePath,
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Stack composes middleware; the first argument is the outermost wrapper.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
