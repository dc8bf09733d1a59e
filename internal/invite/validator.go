// Package invite provides invite code validation for gated signups.
package invite

import (
	"crypto/subtle"
	"strings"
)

// Validator checks signup invite codes against a static shared secret list
// held in memory from configuration.
type Validator struct {
	enabled bool
	codes   []string
}

// New creates a new invite code validator. Codes are compared by exact
// string equality after trimming surrounding whitespace.
func New(enabled bool, codes []string) *Validator {
	seen := make(map[string]bool)
	trimmed := make([]string, 0, len(codes))
	for _, code := range codes {
		c := strings.TrimSpace(code)
		if c != "" && !seen[c] {
			seen[c] = true
			trimmed = append(trimmed, c)
		}
	}
	return &Validator{
		enabled: enabled,
		codes:   trimmed,
	}
}

// IsEnabled returns whether invite codes are required.
func (v *Validator) IsEnabled() bool {
	return v.enabled
}

// ValidateCode checks if the provided code matches a configured secret.
// Returns true if codes are disabled OR the code is valid.
//
// Uses constant-time comparison, checking every stored code regardless of
// match so timing does not leak which code (if any) matched.
func (v *Validator) ValidateCode(code string) bool {
	if !v.enabled {
		return true
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}

	found := 0
	for _, valid := range v.codes {
		a := []byte(code)
		b := []byte(valid)
		if subtle.ConstantTimeEq(int32(len(a)), int32(len(b))) == 1 {
			found |= subtle.ConstantTimeCompare(a, b)
		}
	}
	return found == 1
}
