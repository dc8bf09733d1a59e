package metrics

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path untouched", "/api/leads", "/api/leads"},
		{"uuid replaced", "/api/leads/0d1f3b5a-9c2e-4f7d-8a1b-6e5c4d3b2a19", "/api/leads/{id}"},
		{"email replaced", "/api/admin/users/alice@example.com", "/api/admin/users/{email}"},
		{"email with suffix segment", "/api/admin/users/alice@example.com/deactivate", "/api/admin/users/{email}/deactivate"},
		{"uppercase uuid replaced", "/api/leads/0D1F3B5A-9C2E-4F7D-8A1B-6E5C4D3B2A19", "/api/leads/{id}"},
		{"root", "/", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
