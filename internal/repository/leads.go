package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadboost/leadboost/internal/domain"
)

const leadColumns = `id, user_id, email, company, position, verified, sources, created_at`

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID, &l.UserID, &l.Email, &l.Company, &l.Position,
		&l.Verified, &l.Sources, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// InsertLead appends a lead row and returns its generated id.
func (s *Store) InsertLead(ctx context.Context, lead *domain.Lead) (uuid.UUID, error) {
	const query = `
		INSERT INTO leads (user_id, email, company, position, verified, sources)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, query,
		lead.UserID, lead.Email, lead.Company, lead.Position, lead.Verified, lead.Sources,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ListLeadsByUser returns all leads owned by a user, newest first.
// A limit of 0 means no limit.
func (s *Store) ListLeadsByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Lead, error) {
	const query = `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT NULLIF($2, 0)`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

// CountLeadsByUser returns how many leads a user owns.
func (s *Store) CountLeadsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `SELECT count(*) FROM leads WHERE user_id = $1`

	var n int64
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
