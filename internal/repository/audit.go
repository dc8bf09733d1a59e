package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/domain"
)

// InsertAuditEntry appends one audit record. The details payload is stored
// as JSONB.
func (s *Store) InsertAuditEntry(ctx context.Context, actorID uuid.UUID, action domain.AuditAction, details map[string]any) error {
	const query = `
		INSERT INTO audit_logs (actor_id, action, details)
		VALUES ($1, $2, $3)`

	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, query, actorID, action, payload)
	return err
}

// ListAuditEntries returns the most recent audit records, newest first.
func (s *Store) ListAuditEntries(ctx context.Context, limit int32) ([]domain.AuditEntry, error) {
	const query = `
		SELECT id, actor_id, action, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e   domain.AuditEntry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
