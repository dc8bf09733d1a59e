package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leadboost/leadboost/internal/domain"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrDuplicate indicates a unique constraint violation.
var ErrDuplicate = errors.New("repository: duplicate")

const userColumns = `id, email, password_hash, role, plan, monthly_quota, used_quota, active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Plan,
		&u.MonthlyQuota, &u.UsedQuota, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	const query = `
		INSERT INTO users (email, password_hash, role, plan, monthly_quota, used_quota, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	created, err := scanUser(s.pool.QueryRow(ctx, query,
		u.Email, u.PasswordHash, u.Role, u.Plan, u.MonthlyQuota, u.UsedQuota, u.Active,
	))
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return created, err
}

// GetUserByID fetches a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail fetches a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ConsumeQuota atomically increments used_quota by amount if the user is
// active and the result stays within monthly_quota (or the quota is the
// unlimited sentinel). Returns false without mutation when the check fails.
//
// This single conditional UPDATE is what serializes concurrent consumers
// for the same user; there is deliberately no read-then-write variant.
func (s *Store) ConsumeQuota(ctx context.Context, userID uuid.UUID, amount int32) (bool, error) {
	const query = `
		UPDATE users
		SET used_quota = used_quota + $2, updated_at = now()
		WHERE id = $1
		  AND active
		  AND (monthly_quota = -1 OR used_quota + $2 <= monthly_quota)`

	tag, err := s.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetPlan updates role, plan label, and monthly allowance in one statement.
// used_quota is intentionally left untouched on plan changes.
func (s *Store) SetPlan(ctx context.Context, userID uuid.UUID, role domain.Role, monthlyQuota int32) error {
	const query = `
		UPDATE users
		SET role = $2, plan = $3, monthly_quota = $4, updated_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, role, role.PlanLabel(), monthlyQuota)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserAdmin applies a partial admin change set to the target user.
// Nil fields keep their current value via COALESCE.
func (s *Store) UpdateUserAdmin(ctx context.Context, userID uuid.UUID, changes domain.AdminUserChanges) (*domain.User, error) {
	const query = `
		UPDATE users
		SET role          = COALESCE($2, role),
		    plan          = COALESCE($3, plan),
		    active        = COALESCE($4, active),
		    monthly_quota = COALESCE($5, monthly_quota),
		    updated_at    = now()
		WHERE id = $1
		RETURNING ` + userColumns

	var plan *string
	if changes.Role != nil {
		label := changes.Role.PlanLabel()
		plan = &label
	}

	return scanUser(s.pool.QueryRow(ctx, query,
		userID, changes.Role, plan, changes.Active, changes.MonthlyQuota,
	))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
