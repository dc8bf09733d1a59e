// Package mock is an enrichment provider for development and tests.
package mock

import (
	"context"
	"strings"

	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/enrich"
)

// Provider is a canned enrich.Provider.
type Provider struct {
	// Configurable responses for testing
	Response *enrich.Result
	Err      error

	// Call tracking for testing
	Calls int
}

// New creates a new mock provider
func New() *Provider {
	return &Provider{}
}

// Name identifies this provider.
func (p *Provider) Name() string { return "mock" }

// Enrich returns the configured response, or a deterministic profile derived
// from the email's domain.
func (p *Provider) Enrich(ctx context.Context, email string) (*enrich.Result, error) {
	p.Calls++

	if p.Err != nil {
		return nil, p.Err
	}
	if p.Response != nil {
		return p.Response, nil
	}

	company := ""
	if at := strings.IndexByte(email, '@'); at >= 0 {
		dom := email[at+1:]
		if dot := strings.IndexByte(dom, '.'); dot > 0 {
			company = strings.ToUpper(dom[:1]) + dom[1:dot]
		}
	}

	return &enrich.Result{
		Email:        email,
		Company:      company,
		Position:     "Unknown",
		Verification: domain.VerificationUnknown,
		Sources:      []string{"mock"},
	}, nil
}
