package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/domain"
)

// =============================================================================
// Interface
// =============================================================================

// AuditService records security-relevant actions. Recording is strictly
// best-effort: a failed write is logged and swallowed so the primary
// operation never fails because of the audit trail.
type AuditService interface {
	// Record appends one audit entry. Never returns an error.
	Record(ctx context.Context, actorID uuid.UUID, action domain.AuditAction, details map[string]any)

	// ListRecent returns the newest entries, admin surfaces only.
	ListRecent(ctx context.Context, limit int32) ([]domain.AuditEntry, error)
}

// AuditStore is the persistence surface the audit log needs.
type AuditStore interface {
	InsertAuditEntry(ctx context.Context, actorID uuid.UUID, action domain.AuditAction, details map[string]any) error
	ListAuditEntries(ctx context.Context, limit int32) ([]domain.AuditEntry, error)
}

// =============================================================================
// Implementation
// =============================================================================

type auditService struct {
	store  AuditStore
	logger *slog.Logger
}

// NewAuditService creates a new audit service.
func NewAuditService(store AuditStore, logger *slog.Logger) AuditService {
	return &auditService{
		store:  store,
		logger: logger,
	}
}

func (s *auditService) Record(ctx context.Context, actorID uuid.UUID, action domain.AuditAction, details map[string]any) {
	if err := s.store.InsertAuditEntry(ctx, actorID, action, details); err != nil {
		s.logger.Warn("audit write failed",
			"action", string(action),
			"actor_id", actorID,
			"error", err,
		)
	}
}

func (s *auditService) ListRecent(ctx context.Context, limit int32) ([]domain.AuditEntry, error) {
	const op = "AuditService.ListRecent"

	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.store.ListAuditEntries(ctx, limit)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list audit entries")
	}
	return entries, nil
}
