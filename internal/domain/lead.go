// Package domain contains core business types and interfaces.
//
// This file defines the Lead type, ingestion parameters, and the typed bulk
// row structure used by CSV uploads.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Verification is the email verification state attached to a lead.
type Verification string

const (
	VerificationUnknown Verification = "unknown"
	VerificationValid   Verification = "valid"
	VerificationInvalid Verification = "invalid"
)

// ParseVerification maps free-form input to a known verification state,
// defaulting to unknown. Bulk uploads carry arbitrary strings here.
func ParseVerification(s string) Verification {
	switch Verification(strings.ToLower(strings.TrimSpace(s))) {
	case VerificationValid:
		return VerificationValid
	case VerificationInvalid:
		return VerificationInvalid
	default:
		return VerificationUnknown
	}
}

// Default provenance tags applied when the caller supplies none.
const (
	SourceManual = "Manual"
	SourceCSV    = "CSV"
)

// Lead is a contact record owned by exactly one user. Leads are only ever
// created through the quota-gated ingestion path and are never deduplicated.
type Lead struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Email     string
	Company   string
	Position  string
	Verified  Verification
	Sources   []string // Ordered provenance tags, e.g. ["hunter.io"]
	CreatedAt time.Time
}

// IngestParams are the candidate fields for a single lead ingestion.
type IngestParams struct {
	Email    string
	Company  string
	Position string
	Verified Verification
	Sources  []string
}

// Normalize lower-cases the email, trims all string fields, and applies the
// given default source tag when none was supplied.
func (p *IngestParams) Normalize(defaultSource string) {
	p.Email = NormalizeEmail(p.Email)
	p.Company = strings.TrimSpace(p.Company)
	p.Position = strings.TrimSpace(p.Position)
	if p.Verified == "" {
		p.Verified = VerificationUnknown
	}

	sources := make([]string, 0, len(p.Sources))
	for _, s := range p.Sources {
		if s = strings.TrimSpace(s); s != "" {
			sources = append(sources, s)
		}
	}
	if len(sources) == 0 {
		sources = []string{defaultSource}
	}
	p.Sources = sources
}

// Validate checks the candidate after normalization. Only the email is
// mandatory; everything else tolerates being empty.
func (p *IngestParams) Validate() error {
	return ValidateEmail(p.Email)
}

// LeadRow is one typed row from a bulk upload. Only Email is required; the
// remaining fields default per the ingestion rules when blank.
type LeadRow struct {
	Email       string
	Company     string
	ContactName string
	Position    string
	Phone       string
	Source      string
	Verified    string
}

// IngestParams converts a bulk row to ingestion parameters. The original
// upload variants disagree on contact_name vs position; position wins when
// both are present.
func (r LeadRow) IngestParams() IngestParams {
	position := strings.TrimSpace(r.Position)
	if position == "" {
		position = strings.TrimSpace(r.ContactName)
	}

	var sources []string
	if s := strings.TrimSpace(r.Source); s != "" {
		sources = []string{s}
	}

	return IngestParams{
		Email:    r.Email,
		Company:  r.Company,
		Position: position,
		Verified: ParseVerification(r.Verified),
		Sources:  sources,
	}
}

// RowError describes why one bulk row was not ingested. Row is 1-based to
// match what uploaders see in their spreadsheet.
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// BulkResult aggregates the per-row outcomes of a bulk ingestion. Bulk runs
// are never all-or-nothing; rows already ingested stay ingested.
type BulkResult struct {
	Inserted int        `json:"inserted"`
	Errors   []RowError `json:"errors,omitempty"`
}
