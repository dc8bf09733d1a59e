package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/auth"
	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/service"
)

// AdminHandler handles the admin user-management and audit endpoints.
// Routes are mounted behind RequireAdmin, but every service call
// re-resolves the caller's role anyway; the middleware is a convenience,
// not the enforcement point.
type AdminHandler struct {
	admin  service.AdminService
	audit  service.AuditService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin service.AdminService, audit service.AuditService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		audit:  audit,
		logger: logger,
	}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetUserFromRequest(r)
	if caller == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	users, err := h.admin.ListUsers(r.Context(), caller.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]userView, len(users))
	for i := range users {
		views[i] = newUserView(&users[i])
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": views})
}

type updateUserRequest struct {
	Role         *string `json:"role"`
	Active       *bool   `json:"active"`
	MonthlyQuota *int32  `json:"monthly_quota"`
}

// UpdateUser handles PATCH /api/admin/users/{email}: a partial update of
// role, active flag, and monthly quota. Omitted fields are untouched.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetUserFromRequest(r)
	if caller == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	changes := domain.AdminUserChanges{
		Active:       req.Active,
		MonthlyQuota: req.MonthlyQuota,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		changes.Role = &role
	}

	updated, err := h.admin.UpdateUser(r.Context(), caller.ID, r.PathValue("email"), changes)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(updated)})
}

type quickRoleRequest struct {
	Role string `json:"role"`
}

// QuickRole handles POST /api/admin/users/{email}/role: a role change with
// the quota derived from the role policy.
func (h *AdminHandler) QuickRole(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetUserFromRequest(r)
	if caller == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req quickRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	updated, err := h.admin.QuickRole(r.Context(), caller.ID, r.PathValue("email"), domain.Role(req.Role))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(updated)})
}

// Deactivate handles POST /api/admin/users/{email}/deactivate.
func (h *AdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetUserFromRequest(r)
	if caller == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	updated, err := h.admin.Deactivate(r.Context(), caller.ID, r.PathValue("email"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(updated)})
}

type auditEntryView struct {
	ID        uuid.UUID      `json:"id"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Audit handles GET /api/admin/audit?limit=N (default 100, max 500).
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetUserFromRequest(r)
	if caller == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	if !caller.IsAdmin() {
		ForbiddenResponse(w, r, h.logger)
		return
	}

	var limit int32
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 0 {
			ErrorResponse(w, r, h.logger, domain.Invalid("handler.audit", "Invalid limit"))
			return
		}
		limit = int32(n)
	}

	entries, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]auditEntryView, len(entries))
	for i, e := range entries {
		views[i] = auditEntryView{
			ID:        e.ID,
			ActorID:   e.ActorID,
			Action:    string(e.Action),
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": views})
}
