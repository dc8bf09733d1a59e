// Package service contains the business logic layer.
//
// This file implements the admin mutation gate: role-gated changes to other
// users' plan, role, quota, and active flag. Quick actions are thin call
// sites of the same gate, not separate logic.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/metrics"
	"github.com/leadboost/leadboost/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AdminService applies privileged mutations to user records.
type AdminService interface {
	// UpdateUser applies a partial change set to the user addressed by
	// email. The caller's role is re-resolved and must be admin; otherwise
	// domain.EFORBIDDEN and no mutation. Returns the updated record.
	UpdateUser(ctx context.Context, callerID uuid.UUID, targetEmail string, changes domain.AdminUserChanges) (*domain.User, error)

	// QuickRole changes only the target's role (and derived plan/quota).
	QuickRole(ctx context.Context, callerID uuid.UUID, targetEmail string, role domain.Role) (*domain.User, error)

	// Deactivate soft-disables the target account.
	Deactivate(ctx context.Context, callerID uuid.UUID, targetEmail string) (*domain.User, error)

	// ListUsers returns all user records, admin only.
	ListUsers(ctx context.Context, callerID uuid.UUID) ([]domain.User, error)
}

// AdminStore is the persistence surface the admin gate needs.
type AdminStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserAdmin(ctx context.Context, userID uuid.UUID, changes domain.AdminUserChanges) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// =============================================================================
// Implementation
// =============================================================================

type adminService struct {
	store  AdminStore
	audit  AuditService
	logger *slog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(store AdminStore, audit AuditService, logger *slog.Logger) AdminService {
	return &adminService{
		store:  store,
		audit:  audit,
		logger: logger,
	}
}

func (s *adminService) UpdateUser(ctx context.Context, callerID uuid.UUID, targetEmail string, changes domain.AdminUserChanges) (*domain.User, error) {
	return s.update(ctx, callerID, targetEmail, changes, domain.AuditAdminUpdateUser)
}

func (s *adminService) QuickRole(ctx context.Context, callerID uuid.UUID, targetEmail string, role domain.Role) (*domain.User, error) {
	quota := domain.QuotaForRole(role)
	return s.update(ctx, callerID, targetEmail, domain.AdminUserChanges{
		Role:         &role,
		MonthlyQuota: &quota,
	}, domain.AuditAdminQuickRole)
}

func (s *adminService) Deactivate(ctx context.Context, callerID uuid.UUID, targetEmail string) (*domain.User, error) {
	inactive := false
	return s.update(ctx, callerID, targetEmail, domain.AdminUserChanges{
		Active: &inactive,
	}, domain.AuditAdminDeactivate)
}

// update is the single gate behind every admin mutation.
func (s *adminService) update(ctx context.Context, callerID uuid.UUID, targetEmail string, changes domain.AdminUserChanges, action domain.AuditAction) (*domain.User, error) {
	const op = "AdminService.UpdateUser"

	caller, err := s.requireAdmin(ctx, op, callerID)
	if err != nil {
		return nil, err
	}

	if changes.Empty() {
		return nil, domain.Invalid(op, "No changes requested")
	}
	if err := changes.Validate(); err != nil {
		return nil, err
	}

	targetEmail = domain.NormalizeEmail(targetEmail)
	target, err := s.store.GetUserByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound(op, "user", targetEmail)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve target user")
	}

	// Role changes reset the monthly allowance from the policy table unless
	// the caller pinned an explicit quota in the same request.
	if changes.Role != nil && changes.MonthlyQuota == nil {
		quota := domain.QuotaForRole(*changes.Role)
		changes.MonthlyQuota = &quota
	}

	updated, err := s.store.UpdateUserAdmin(ctx, target.ID, changes)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to update user")
	}

	if changes.Role != nil && *changes.Role != target.Role {
		metrics.PlanUpgradesTotal.Inc()
	}

	s.logger.Info("admin updated user",
		"caller_id", caller.ID,
		"target", target.Email,
		"action", action,
	)
	s.audit.Record(ctx, callerID, action, map[string]any{
		"target": target.Email,
		"before": auditSnapshot(target),
		"after":  auditSnapshot(updated),
	})

	updated.PasswordHash = ""
	return updated, nil
}

func (s *adminService) ListUsers(ctx context.Context, callerID uuid.UUID) ([]domain.User, error) {
	const op = "AdminService.ListUsers"

	if _, err := s.requireAdmin(ctx, op, callerID); err != nil {
		return nil, err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list users")
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// requireAdmin re-resolves the caller's role from the store on every call.
func (s *adminService) requireAdmin(ctx context.Context, op string, callerID uuid.UUID) (*domain.User, error) {
	caller, err := s.store.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthorized(op, "Unknown caller")
		}
		return nil, domain.Internal(err, op, "Failed to resolve caller")
	}
	if !caller.IsAdmin() {
		return nil, domain.Forbidden(op, "Admin role required")
	}
	return caller, nil
}

func auditSnapshot(u *domain.User) map[string]any {
	return map[string]any{
		"role":          string(u.Role),
		"active":        u.Active,
		"monthly_quota": u.MonthlyQuota,
	}
}
