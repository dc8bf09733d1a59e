// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication.
// These types are separate from the repository rows to allow for business logic
// enrichment and to decouple the domain layer from the database layer.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization tier of a user. It is the single source of
// truth for access control; Plan is only a display label derived from it.
type Role string

const (
	RoleFreemium Role = "freemium"
	RolePremium  Role = "premium"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleFreemium, RolePremium, RoleAdmin:
		return true
	}
	return false
}

// PlanLabel returns the display label shown for the role.
func (r Role) PlanLabel() string {
	switch r {
	case RolePremium:
		return "Premium"
	case RoleAdmin:
		return "Admin"
	default:
		return "Freemium"
	}
}

// User represents a registered LeadBoost user.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // Never expose this in API responses
	Role         Role
	Plan         string // Display label, kept in sync with Role
	MonthlyQuota int32  // UnlimitedQuota means no cap
	UsedQuota    int32
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin returns true if the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// QuotaRemaining returns how many ingestions the user has left this month.
// Unlimited users always report the full sentinel.
func (u *User) QuotaRemaining() int32 {
	if u.MonthlyQuota == UnlimitedQuota {
		return UnlimitedQuota
	}
	if u.UsedQuota >= u.MonthlyQuota {
		return 0
	}
	return u.MonthlyQuota - u.UsedQuota
}

// Session represents an authenticated session.
//
// Sessions are stored with a hashed token; the raw token is only given to
// the client once, at login.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email      string
	Password   string // Raw password, hashed by the service
	InviteCode string // Static shared secret gating account creation
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// AdminUserChanges is the partial change set an admin may apply to another
// user. Nil fields are left untouched. Any field outside this set is
// rejected at the boundary.
type AdminUserChanges struct {
	Role         *Role
	Active       *bool
	MonthlyQuota *int32
}

// Empty reports whether no change was requested.
func (c AdminUserChanges) Empty() bool {
	return c.Role == nil && c.Active == nil && c.MonthlyQuota == nil
}

// Validate checks the requested values without applying them.
func (c AdminUserChanges) Validate() error {
	const op = "admin.changes"
	if c.Role != nil && !c.Role.Valid() {
		return Invalid(op, "Role must be one of freemium, premium, admin")
	}
	if c.MonthlyQuota != nil && *c.MonthlyQuota < 0 && *c.MonthlyQuota != UnlimitedQuota {
		return Invalid(op, "Monthly quota must be non-negative")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address for storage and
// case-insensitive lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic address syntax: exactly one @, a non-empty
// local part, and a domain containing at least one dot.
func ValidateEmail(email string) error {
	const op = "domain.validate_email"

	if email == "" {
		return Invalid(op, "Email is required")
	}
	if len(email) > 254 {
		return Invalid(op, "Email must be 254 characters or less")
	}

	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') {
		return Invalid(op, "Email must contain exactly one @ symbol")
	}

	local, dom := email[:at], email[at+1:]
	if local == "" || strings.ContainsAny(local, " \t") {
		return Invalid(op, "Email local part is invalid")
	}
	if dom == "" || strings.ContainsAny(dom, " \t") {
		return Invalid(op, "Email domain is invalid")
	}
	dot := strings.IndexByte(dom, '.')
	if dot <= 0 || dot == len(dom)-1 {
		return Invalid(op, "Email domain must contain a dot")
	}

	return nil
}
