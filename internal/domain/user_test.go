package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid simple", "alice@example.com", false},
		{"valid subdomain", "bob@mail.example.co", false},
		{"valid plus tag", "carol+tag@example.com", false},
		{"empty", "", true},
		{"missing at", "aliceexample.com", true},
		{"two ats", "alice@@example.com", true},
		{"at in local and domain", "a@b@example.com", true},
		{"empty local", "@example.com", true},
		{"empty domain", "alice@", true},
		{"domain without dot", "alice@localhost", true},
		{"domain starting with dot", "alice@.com", true},
		{"domain ending with dot", "alice@example.", true},
		{"space in local", "ali ce@example.com", true},
		{"space in domain", "alice@exa mple.com", true},
		{"too long", "a@" + strings252() + ".io", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, EINVALID, ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// strings252 builds a 252-char label so the whole address exceeds 254.
func strings252() string {
	b := make([]byte, 252)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "bob@example.com", NormalizeEmail("bob@example.com"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleFreemium.Valid())
	assert.True(t, RolePremium.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("enterprise").Valid())
	assert.False(t, Role("").Valid())
}

func TestRole_PlanLabel(t *testing.T) {
	assert.Equal(t, "Freemium", RoleFreemium.PlanLabel())
	assert.Equal(t, "Premium", RolePremium.PlanLabel())
	assert.Equal(t, "Admin", RoleAdmin.PlanLabel())
	assert.Equal(t, "Freemium", Role("unknown").PlanLabel())
}

func TestUser_QuotaRemaining(t *testing.T) {
	tests := []struct {
		name string
		user User
		want int32
	}{
		{"fresh freemium", User{MonthlyQuota: 25, UsedQuota: 0}, 25},
		{"partially used", User{MonthlyQuota: 25, UsedQuota: 10}, 15},
		{"exhausted", User{MonthlyQuota: 25, UsedQuota: 25}, 0},
		{"over limit after downgrade", User{MonthlyQuota: 25, UsedQuota: 400}, 0},
		{"unlimited admin", User{MonthlyQuota: UnlimitedQuota, UsedQuota: 99999}, UnlimitedQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.QuotaRemaining())
		})
	}
}

func TestSession_IsExpired(t *testing.T) {
	live := Session{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, live.IsExpired())

	expired := Session{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, expired.IsExpired())
}

func TestAdminUserChanges_Empty(t *testing.T) {
	assert.True(t, AdminUserChanges{}.Empty())

	active := false
	assert.False(t, AdminUserChanges{Active: &active}.Empty())
}

func TestAdminUserChanges_Validate(t *testing.T) {
	badRole := Role("superuser")
	goodRole := RolePremium
	negQuota := int32(-5)
	unlimited := UnlimitedQuota
	zeroQuota := int32(0)

	tests := []struct {
		name    string
		changes AdminUserChanges
		wantErr bool
	}{
		{"no changes", AdminUserChanges{}, false},
		{"valid role", AdminUserChanges{Role: &goodRole}, false},
		{"invalid role", AdminUserChanges{Role: &badRole}, true},
		{"negative quota", AdminUserChanges{MonthlyQuota: &negQuota}, true},
		{"unlimited sentinel allowed", AdminUserChanges{MonthlyQuota: &unlimited}, false},
		{"zero quota allowed", AdminUserChanges{MonthlyQuota: &zeroQuota}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.changes.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, EINVALID, ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
