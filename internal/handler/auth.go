package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadboost/leadboost/internal/auth"
	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/service"
)

// Session cookie constants - these match the values in middleware/auth.go.
// They are duplicated here because middleware imports handler for error
// responses, so handler cannot import middleware.
const (
	sessionCookieName   = "leadboost_session"
	sessionCookiePath   = "/"
	sessionCookieMaxAge = 7 * 24 * 60 * 60 // matches service.SessionDuration
)

// AuthHandler handles signup, login, logout, and the current-user endpoint.
type AuthHandler struct {
	users    service.UserService
	quota    service.QuotaService
	logger   *slog.Logger
	isSecure bool // Secure cookie flag, true in production
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users service.UserService, quota service.QuotaService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		users:    users,
		quota:    quota,
		logger:   logger,
		isSecure: isSecure,
	}
}

type signupRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}

// Signup handles POST /signup. New accounts always start as freemium.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), domain.RegisterParams{
		Email:      req.Email,
		Password:   req.Password,
		InviteCode: req.InviteCode,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"user": newUserView(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /login. On success a session cookie is set.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	setSessionCookie(w, result.Token, h.isSecure)
	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(result.User)})
}

// Logout handles POST /logout. Idempotent: succeeds with or without a
// valid session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.users.Logout(r.Context(), cookie.Value); err != nil {
			logHandlerError(h.logger, r, "logout failed", err)
		}
	}

	clearSessionCookie(w, h.isSecure)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me handles GET /api/me: the caller's own record with live quota usage.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(user)})
}

type upgradeRequest struct {
	Plan string `json:"plan"`
}

// Upgrade handles POST /api/upgrade: self-service freemium -> premium.
func (h *AuthHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	req := upgradeRequest{Plan: string(domain.RolePremium)}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}

	role := domain.Role(req.Plan)
	if !role.Valid() {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.upgrade", "Unknown plan"))
		return
	}

	if err := h.quota.UpgradePlan(r.Context(), user.ID, user.ID, role); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	updated, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(updated)})
}

func setSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     sessionCookiePath,
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     sessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
