package invite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_ValidateCode(t *testing.T) {
	v := New(true, []string{"LEADBOOST-BETA", " FRIENDS-2026 ", "", "LEADBOOST-BETA"})

	tests := []struct {
		name string
		code string
		want bool
	}{
		{"exact match", "LEADBOOST-BETA", true},
		{"stored code is trimmed", "FRIENDS-2026", true},
		{"surrounding whitespace trimmed", "  LEADBOOST-BETA\n", true},
		{"case sensitive", "leadboost-beta", false},
		{"prefix is not a match", "LEADBOOST-BET", false},
		{"suffix is not a match", "LEADBOOST-BETA2", false},
		{"empty code", "", false},
		{"whitespace only", "   ", false},
		{"unknown code", "WRONG", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ValidateCode(tt.code))
		})
	}
}

func TestValidator_Disabled(t *testing.T) {
	v := New(false, []string{"LEADBOOST-BETA"})

	assert.False(t, v.IsEnabled())
	assert.True(t, v.ValidateCode("anything"))
	assert.True(t, v.ValidateCode(""))
}

func TestValidator_EnabledWithNoCodes(t *testing.T) {
	v := New(true, nil)

	assert.True(t, v.IsEnabled())
	assert.False(t, v.ValidateCode("LEADBOOST-BETA"))
}
