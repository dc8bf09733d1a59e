package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction tags a security-relevant event in the audit log.
type AuditAction string

const (
	AuditSignup           AuditAction = "signup"
	AuditLogin            AuditAction = "login"
	AuditInsertLead       AuditAction = "insert_lead"
	AuditBulkInsert       AuditAction = "bulk_insert"
	AuditUpgradeToPremium AuditAction = "upgrade_to_premium"
	AuditAdminUpdateUser  AuditAction = "admin_update_user"
	AuditAdminQuickRole   AuditAction = "admin_quick_role"
	AuditAdminDeactivate  AuditAction = "admin_deactivate"
)

// AuditEntry is one append-only record of a security-relevant action.
// Writing entries is always best-effort; no primary operation waits on or
// fails because of the audit log.
type AuditEntry struct {
	ID        uuid.UUID
	ActorID   uuid.UUID
	Action    AuditAction
	Details   map[string]any
	CreatedAt time.Time
}
