// Package handler contains the JSON HTTP handlers for the LeadBoost API.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/domain"
)

// maxBodyBytes caps JSON request bodies at 1 MiB.
const maxBodyBytes = 1 << 20

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("handler.decode", "Invalid JSON request body")
	}
	return nil
}

// userView is the wire representation of a user. The password hash never
// leaves the service layer.
type userView struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Plan         string    `json:"plan"`
	MonthlyQuota int32     `json:"monthly_quota"`
	UsedQuota    int32     `json:"used_quota"`
	Remaining    *int32    `json:"quota_remaining,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

func newUserView(u *domain.User) userView {
	v := userView{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		Plan:         u.Plan,
		MonthlyQuota: u.MonthlyQuota,
		UsedQuota:    u.UsedQuota,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
	}
	if u.MonthlyQuota != domain.UnlimitedQuota {
		rem := u.QuotaRemaining()
		v.Remaining = &rem
	}
	return v
}

// leadView is the wire representation of a lead.
type leadView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Position  string    `json:"position,omitempty"`
	Verified  string    `json:"verified"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

func newLeadView(l *domain.Lead) leadView {
	return leadView{
		ID:        l.ID,
		Email:     l.Email,
		Company:   l.Company,
		Position:  l.Position,
		Verified:  string(l.Verified),
		Sources:   l.Sources,
		CreatedAt: l.CreatedAt,
	}
}

func newLeadViews(leads []domain.Lead) []leadView {
	views := make([]leadView, len(leads))
	for i := range leads {
		views[i] = newLeadView(&leads[i])
	}
	return views
}

// logHandlerError is a small helper for errors that occur outside the
// standard ErrorResponse path.
func logHandlerError(logger *slog.Logger, r *http.Request, msg string, err error) {
	logger.Error(msg, "error", err, "path", r.URL.Path, "method", r.Method)
}
