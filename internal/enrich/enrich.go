// Package enrich defines the contact enrichment boundary.
//
// Providers look up a person/company profile by email against a third-party
// API (Hunter.io style). Enrichment is strictly advisory: any failure is
// reported as Unavailable and callers treat it as "no enrichment data",
// never as an error that blocks ingestion.
package enrich

import (
	"context"
	"errors"

	"github.com/leadboost/leadboost/internal/domain"
)

// ErrUnavailable is returned when the provider cannot answer (network
// failure, non-200 response, rate limit). Callers degrade gracefully.
var ErrUnavailable = errors.New("enrich: provider unavailable")

// Provider looks up enrichment data for an email address.
type Provider interface {
	// Name identifies the provider in logs, metrics, and source tags.
	Name() string

	// Enrich returns profile data for the email, or ErrUnavailable.
	Enrich(ctx context.Context, email string) (*Result, error)
}

// Result is the normalized enrichment payload across providers.
type Result struct {
	FirstName    string
	LastName     string
	Email        string
	Position     string
	Company      string
	Verification domain.Verification
	Sources      []string // Provenance tags, e.g. ["hunter.io"]
}

// Merge fills the blanks of candidate lead params from the enrichment
// result. Caller-provided values always win; enrichment only supplements.
func (r *Result) Merge(p *domain.IngestParams) {
	if r == nil {
		return
	}
	if p.Company == "" {
		p.Company = r.Company
	}
	if p.Position == "" {
		p.Position = r.Position
	}
	if p.Verified == "" || p.Verified == domain.VerificationUnknown {
		if r.Verification != "" {
			p.Verified = r.Verification
		}
	}
	if len(p.Sources) == 0 {
		p.Sources = append(p.Sources, r.Sources...)
	}
}
