// Package service contains the business logic layer.
//
// This file implements account registration, login, and session-token
// resolution. Session resolution is the identity and role resolver for
// every downstream operation: the user row (and with it the role) is
// re-read on each request, never cached across a session's lifetime.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/invite"
	"github.com/leadboost/leadboost/internal/metrics"
	"github.com/leadboost/leadboost/internal/repository"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 provides good security (~250ms on modern hardware) while being
	// fast enough for login flows.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// 32 bytes = 256 bits of entropy; hex-encoded to 64 characters.
	SessionTokenBytes = 32

	// SessionDuration is how long a session remains valid.
	SessionDuration = 7 * 24 * time.Hour

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 8

	// MaxPasswordLength prevents DoS via bcrypt on very long passwords.
	// bcrypt has a 72-byte limit anyway.
	MaxPasswordLength = 72
)

// =============================================================================
// Interface Definition
// =============================================================================

// UserService defines account and session operations.
type UserService interface {
	// Register creates a new user account. Signup is invite-gated.
	// Returns domain.ECONFLICT if the email already exists,
	// domain.EFORBIDDEN for a bad invite code, domain.EINVALID for
	// validation errors.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login authenticates a user and creates a new session.
	// Returns domain.EUNAUTHORIZED for invalid credentials and
	// domain.EFORBIDDEN for deactivated accounts.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Logout invalidates a session by its raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetBySessionToken resolves an opaque credential to the current user
	// record (identity and role). Called on every request; the answer is
	// authoritative and never cached.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// DeleteExpiredSessions removes expired sessions. Run periodically.
	DeleteExpiredSessions(ctx context.Context) error
}

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	store   UserStore
	invites *invite.Validator
	audit   AuditService
	logger  *slog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(store UserStore, invites *invite.Validator, audit AuditService, logger *slog.Logger) UserService {
	return &userService{
		store:   store,
		invites: invites,
		audit:   audit,
		logger:  logger,
	}
}

// Register creates a new user account.
//
// Security considerations:
// - The invite code check runs first and reveals nothing about the email
// - Password is hashed with bcrypt cost 12
// - On duplicate email the password is hashed anyway to keep timing flat
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "UserService.Register"

	if !s.invites.ValidateCode(params.InviteCode) {
		return nil, domain.Forbidden(op, "Invalid invite code")
	}

	params.Email = domain.NormalizeEmail(params.Email)
	if err := domain.ValidateEmail(params.Email); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid email address")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid password")
	}

	_, err := s.store.GetUserByEmail(ctx, params.Email)
	if err == nil {
		// User exists - hash anyway to prevent timing attacks
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	role := domain.RoleFreemium
	user, err := s.store.CreateUser(ctx, &domain.User{
		Email:        params.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Plan:         role.PlanLabel(),
		MonthlyQuota: domain.QuotaForRole(role),
		UsedQuota:    0,
		Active:       true,
	})
	if err != nil {
		// Unique constraint race between the existence check and the insert
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflict(op, "Email already registered")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	user.PasswordHash = ""

	metrics.SignupsTotal.Inc()
	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	s.audit.Record(ctx, user.ID, domain.AuditSignup, map[string]any{"email": user.Email})

	return user, nil
}

// Login authenticates a user and creates a new session.
//
// Security considerations:
// - Constant-time password comparison via bcrypt
// - Generic error message prevents email enumeration
// - The session token is returned once and stored only as a SHA-256 hash
func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = domain.NormalizeEmail(email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a bcrypt comparison to keep timing flat
			dummyHash := "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	if !user.Active {
		return nil, domain.Forbidden(op, "Account is deactivated")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate session token")
	}

	if _, err := s.store.CreateSession(ctx, user.ID, hashSessionToken(token), time.Now().Add(SessionDuration)); err != nil {
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	user.PasswordHash = ""

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)
	s.audit.Record(ctx, user.ID, domain.AuditLogin, map[string]any{"email": user.Email})

	return &domain.LoginResult{User: user, Token: token}, nil
}

// Logout invalidates a session. Idempotent: bad or unknown tokens are fine.
func (s *userService) Logout(ctx context.Context, token string) error {
	if len(token) != SessionTokenBytes*2 {
		return nil
	}
	if err := s.store.DeleteSession(ctx, hashSessionToken(token)); err != nil {
		s.logger.Warn("failed to delete session", "error", err)
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user.PasswordHash = ""
	return user, nil
}

// GetBySessionToken resolves the opaque credential presented with a request.
// The role on the returned user is read fresh from the store, so an admin
// demotion takes effect on the target's very next request.
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "UserService.GetBySessionToken"

	if len(token) != SessionTokenBytes*2 {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	session, err := s.store.GetSessionByTokenHash(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if !user.Active {
		return nil, domain.Forbidden(op, "Account is deactivated")
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) DeleteExpiredSessions(ctx context.Context) error {
	const op = "UserService.DeleteExpiredSessions"

	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return domain.Internal(err, op, "Failed to delete expired sessions")
	}
	if n > 0 {
		s.logger.Debug("expired sessions removed", "count", n)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// generateSessionToken creates a cryptographically secure random token.
func generateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashSessionToken creates a SHA-256 hash of a session token. Tokens are
// high-entropy random values, so a fast hash is sufficient here; bcrypt is
// reserved for passwords.
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}
	return nil
}
