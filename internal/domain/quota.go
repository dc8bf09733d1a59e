// Package domain contains core business types and interfaces.
//
// This file defines the monthly quota policy applied per role.
package domain

// UnlimitedQuota is the sentinel stored in monthly_quota for users with no
// cap (admins). The ledger's conditional update treats it specially.
const UnlimitedQuota int32 = -1

// RoleQuotas maps roles to the monthly ingestion allowance assigned when a
// plan change is applied. Mirrors the hosted plan table: 25 searches for
// freemium, 500 for premium, uncapped for admins.
var RoleQuotas = map[Role]int32{
	RoleFreemium: 25,
	RolePremium:  500,
	RoleAdmin:    UnlimitedQuota,
}

// QuotaForRole returns the monthly allowance for a role, defaulting to the
// freemium allowance for unknown roles.
func QuotaForRole(role Role) int32 {
	if q, ok := RoleQuotas[role]; ok {
		return q
	}
	return RoleQuotas[RoleFreemium]
}

// QuotaUsage represents current usage against the monthly limit.
type QuotaUsage struct {
	Used        int32
	Limit       int32
	IsUnlimited bool
}

// Remaining returns how much quota is left; zero when exhausted.
func (q QuotaUsage) Remaining() int32 {
	if q.IsUnlimited {
		return UnlimitedQuota
	}
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}
