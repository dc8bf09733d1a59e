package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaForRole(t *testing.T) {
	assert.Equal(t, int32(25), QuotaForRole(RoleFreemium))
	assert.Equal(t, int32(500), QuotaForRole(RolePremium))
	assert.Equal(t, UnlimitedQuota, QuotaForRole(RoleAdmin))

	// Unknown roles get the most restrictive allowance
	assert.Equal(t, int32(25), QuotaForRole(Role("enterprise")))
}

func TestQuotaUsage_Remaining(t *testing.T) {
	tests := []struct {
		name  string
		usage QuotaUsage
		want  int32
	}{
		{"untouched", QuotaUsage{Used: 0, Limit: 25}, 25},
		{"partial", QuotaUsage{Used: 20, Limit: 25}, 5},
		{"exhausted", QuotaUsage{Used: 25, Limit: 25}, 0},
		{"over after downgrade", QuotaUsage{Used: 300, Limit: 25}, 0},
		{"unlimited", QuotaUsage{Used: 12345, Limit: UnlimitedQuota, IsUnlimited: true}, UnlimitedQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.usage.Remaining())
		})
	}
}
