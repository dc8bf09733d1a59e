package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Enrichment provider configuration
	EnrichProvider       string // "hunter" or "mock"
	HunterAPIKey         string
	EnrichRequestTimeout time.Duration

	// Invite code system
	InviteCodesEnabled bool     // Enable/disable invite code requirement
	ValidInviteCodes   []string // List of valid codes to accept

	// Admin bootstrap: accounts with these emails are promoted to admin at
	// startup if they exist.
	AdminEmails []string

	// Auth endpoint rate limiting
	AuthRateLimitAttempts int
	AuthRateLimitWindow   time.Duration

	// Session cleanup
	SessionCleanupInterval time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Enrichment defaults to the mock provider so development works
		// without a key
		EnrichProvider:       getEnv("ENRICH_PROVIDER", "mock"),
		HunterAPIKey:         getEnv("HUNTER_API_KEY", ""),
		EnrichRequestTimeout: getEnvDuration("ENRICH_REQUEST_TIMEOUT", 10*time.Second),

		// Invite code defaults (enabled by default)
		InviteCodesEnabled: getEnvBool("INVITE_CODES_ENABLED", true),

		// Rate limit defaults for signup/login
		AuthRateLimitAttempts: getEnvInt("AUTH_RATE_LIMIT_ATTEMPTS", 10),
		AuthRateLimitWindow:   getEnvDuration("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),

		SessionCleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 1*time.Hour),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Parse invite codes from comma-separated environment variable.
	// Codes are matched by exact string equality, so only whitespace is
	// trimmed here.
	inviteCodesStr := getEnv("VALID_INVITE_CODES", "")
	if inviteCodesStr != "" {
		codes := strings.Split(inviteCodesStr, ",")
		for _, code := range codes {
			if trimmed := strings.TrimSpace(code); trimmed != "" {
				cfg.ValidInviteCodes = append(cfg.ValidInviteCodes, trimmed)
			}
		}
	}

	// Parse admin emails from comma-separated environment variable
	adminEmailsStr := getEnv("ADMIN_EMAILS", "")
	if adminEmailsStr != "" {
		emails := strings.Split(adminEmailsStr, ",")
		for _, email := range emails {
			if trimmed := strings.TrimSpace(strings.ToLower(email)); trimmed != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, trimmed)
			}
		}
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate enrichment provider configuration
	if cfg.EnrichProvider == "hunter" {
		if cfg.HunterAPIKey == "" {
			return nil, fmt.Errorf("HUNTER_API_KEY is required when ENRICH_PROVIDER is 'hunter'")
		}
	} else if cfg.EnrichProvider != "mock" {
		return nil, fmt.Errorf("ENRICH_PROVIDER must be either 'hunter' or 'mock', got: %s", cfg.EnrichProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
