// Package hunter implements the enrich.Provider interface against the
// Hunter.io email-finder API.
package hunter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/enrich"
	"github.com/leadboost/leadboost/internal/metrics"
)

const (
	// APIBaseURL is the Hunter.io email-finder endpoint
	APIBaseURL = "https://api.hunter.io/v2/email-finder"

	// DefaultTimeout bounds a single enrichment round trip
	DefaultTimeout = 10 * time.Second

	providerName = "hunter.io"
)

// Config contains configuration for the Hunter client
type Config struct {
	APIKey  string
	BaseURL string        // Overridable for tests
	Timeout time.Duration // Zero means DefaultTimeout
}

// Client implements enrich.Provider using Hunter.io
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Hunter.io enrichment client
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("hunter API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

// Name identifies this provider.
func (c *Client) Name() string { return providerName }

// apiResponse mirrors the subset of the email-finder payload we consume.
type apiResponse struct {
	Data struct {
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Email        string `json:"email"`
		Position     string `json:"position"`
		Company      string `json:"company"`
		Verification struct {
			Status string `json:"status"`
		} `json:"verification"`
	} `json:"data"`
}

// Enrich looks up the email against Hunter.io. Every failure mode maps to
// enrich.ErrUnavailable; the caller decides whether missing data matters.
func (c *Client) Enrich(ctx context.Context, email string) (*enrich.Result, error) {
	params := url.Values{}
	params.Set("email", email)
	params.Set("api_key", c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build hunter request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.EnrichmentCalls.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("hunter request failed", "error", err)
		return nil, enrich.ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EnrichmentCalls.WithLabelValues(providerName, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		c.logger.Warn("hunter returned non-200", "status", resp.StatusCode)
		return nil, enrich.ErrUnavailable
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.EnrichmentCalls.WithLabelValues(providerName, "decode_error").Inc()
		c.logger.Warn("hunter response decode failed", "error", err)
		return nil, enrich.ErrUnavailable
	}

	metrics.EnrichmentCalls.WithLabelValues(providerName, "ok").Inc()

	result := &enrich.Result{
		FirstName:    payload.Data.FirstName,
		LastName:     payload.Data.LastName,
		Email:        payload.Data.Email,
		Position:     payload.Data.Position,
		Company:      payload.Data.Company,
		Verification: domain.ParseVerification(payload.Data.Verification.Status),
		Sources:      []string{providerName},
	}
	if result.Email == "" {
		result.Email = email
	}
	return result, nil
}
