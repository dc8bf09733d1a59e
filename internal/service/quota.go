// Package service contains the business logic layer.
//
// This file implements the quota ledger: the only component permitted to
// mutate used_quota.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// QuotaService owns per-user quota state and plan transitions.
type QuotaService interface {
	// TryConsume atomically charges amount units of quota to the user.
	// Returns domain.EQUOTA when the monthly allowance would be exceeded,
	// domain.ENOTFOUND when the user does not exist, and domain.EFORBIDDEN
	// when the account is deactivated. On any non-nil error nothing was
	// consumed.
	//
	// A successful consume must NOT be blindly retried by callers: the
	// increment has committed, and retrying would double-charge.
	TryConsume(ctx context.Context, userID uuid.UUID, amount int32) error

	// Usage returns current consumption against the monthly limit.
	Usage(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error)

	// UpgradePlan moves the target user to newRole, resetting monthly_quota
	// from the role policy table and leaving used_quota untouched.
	// Permitted callers: the user themselves for freemium -> premium, or an
	// admin for any transition.
	UpgradePlan(ctx context.Context, callerID, targetID uuid.UUID, newRole domain.Role) error
}

// QuotaStore is the persistence surface the ledger needs. ConsumeQuota must
// be a single indivisible conditional update at the store.
type QuotaStore interface {
	ConsumeQuota(ctx context.Context, userID uuid.UUID, amount int32) (bool, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	SetPlan(ctx context.Context, userID uuid.UUID, role domain.Role, monthlyQuota int32) error
}

// =============================================================================
// Implementation
// =============================================================================

type quotaService struct {
	store  QuotaStore
	audit  AuditService
	logger *slog.Logger
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(store QuotaStore, audit AuditService, logger *slog.Logger) QuotaService {
	return &quotaService{
		store:  store,
		audit:  audit,
		logger: logger,
	}
}

// TryConsume charges quota through the store's conditional update. The
// check and the increment happen in one statement, so concurrent calls for
// the same user serialize at the store and used_quota can never pass
// monthly_quota, no matter how calls interleave.
func (s *quotaService) TryConsume(ctx context.Context, userID uuid.UUID, amount int32) error {
	const op = "QuotaService.TryConsume"

	if amount <= 0 {
		return domain.Invalid(op, "Amount must be a positive integer")
	}

	ok, err := s.store.ConsumeQuota(ctx, userID, amount)
	if err != nil {
		return domain.Internal(err, op, "Failed to update quota")
	}
	if ok {
		return nil
	}

	// The conditional update matched no row. Read the user once to tell the
	// caller why; this read is diagnostic only and charges nothing.
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound(op, "user", userID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve user")
	}
	if !user.Active {
		return domain.Forbidden(op, "Account is deactivated")
	}

	s.logger.Info("quota exceeded",
		"user_id", userID,
		"used", user.UsedQuota,
		"limit", user.MonthlyQuota,
		"requested", amount,
	)
	return domain.QuotaExceeded(op, user.UsedQuota, user.MonthlyQuota)
}

func (s *quotaService) Usage(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error) {
	const op = "QuotaService.Usage"

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	return &domain.QuotaUsage{
		Used:        user.UsedQuota,
		Limit:       user.MonthlyQuota,
		IsUnlimited: user.MonthlyQuota == domain.UnlimitedQuota,
	}, nil
}

func (s *quotaService) UpgradePlan(ctx context.Context, callerID, targetID uuid.UUID, newRole domain.Role) error {
	const op = "QuotaService.UpgradePlan"

	if !newRole.Valid() {
		return domain.Invalid(op, "Unknown role")
	}

	// Re-resolve the caller's role on every call; it can change between
	// requests.
	caller, err := s.store.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Unauthorized(op, "Unknown caller")
		}
		return domain.Internal(err, op, "Failed to resolve caller")
	}

	target, err := s.store.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound(op, "user", targetID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve target user")
	}

	selfUpgrade := callerID == targetID &&
		target.Role == domain.RoleFreemium && newRole == domain.RolePremium
	if !selfUpgrade && !caller.IsAdmin() {
		return domain.Forbidden(op, "Only admins may change other users' plans")
	}

	if err := s.store.SetPlan(ctx, targetID, newRole, domain.QuotaForRole(newRole)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound(op, "user", targetID.String())
		}
		return domain.Internal(err, op, "Failed to update plan")
	}

	s.logger.Info("plan changed",
		"caller_id", callerID,
		"target_id", targetID,
		"from", target.Role,
		"to", newRole,
	)
	s.audit.Record(ctx, callerID, domain.AuditUpgradeToPremium, map[string]any{
		"target": target.Email,
		"from":   string(target.Role),
		"to":     string(newRole),
	})

	return nil
}
