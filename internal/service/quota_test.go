package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadboost/leadboost/internal/domain"
)

func newQuotaFixture() (*memStore, QuotaService) {
	store := newMemStore()
	audit := NewAuditService(store, testLogger())
	return store, NewQuotaService(store, audit, testLogger())
}

func TestQuotaService_TryConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes within the allowance", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, Active: true})

		require.NoError(t, svc.TryConsume(ctx, id, 1))
		require.NoError(t, svc.TryConsume(ctx, id, 3))
		assert.Equal(t, int32(4), store.usedQuota(id))
	})

	t.Run("consuming exactly up to the limit succeeds", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, UsedQuota: 24, Active: true})

		require.NoError(t, svc.TryConsume(ctx, id, 1))
		assert.Equal(t, int32(25), store.usedQuota(id))
	})

	t.Run("rejects when the allowance would be exceeded", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, UsedQuota: 25, Active: true})

		err := svc.TryConsume(ctx, id, 1)
		assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
		assert.Equal(t, int32(25), store.usedQuota(id), "failed consume must not charge")
	})

	t.Run("multi-unit consume is all or nothing", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, UsedQuota: 23, Active: true})

		err := svc.TryConsume(ctx, id, 5)
		assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
		assert.Equal(t, int32(23), store.usedQuota(id))
	})

	t.Run("unlimited users are never rejected", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "admin@b.co", Role: domain.RoleAdmin, MonthlyQuota: domain.UnlimitedQuota, UsedQuota: 99999, Active: true})

		require.NoError(t, svc.TryConsume(ctx, id, 100))
		assert.Equal(t, int32(100099), store.usedQuota(id), "usage is still tracked for unlimited users")
	})

	t.Run("deactivated account is forbidden", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, Active: false})

		err := svc.TryConsume(ctx, id, 1)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		_, svc := newQuotaFixture()
		err := svc.TryConsume(ctx, uuid.New(), 1)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("non-positive amounts are invalid", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, Active: true})

		assert.Equal(t, domain.EINVALID, domain.ErrorCode(svc.TryConsume(ctx, id, 0)))
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(svc.TryConsume(ctx, id, -3)))
		assert.Equal(t, int32(0), store.usedQuota(id))
	})
}

// Concurrent consumers must never push usage past the limit: exactly limit
// consumes succeed, no matter how the calls interleave.
func TestQuotaService_TryConsume_Concurrent(t *testing.T) {
	ctx := context.Background()
	store, svc := newQuotaFixture()
	id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, Active: true})

	const workers = 100
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.TryConsume(ctx, id, 1)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case domain.ErrorCode(err) == domain.EQUOTA:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 25, succeeded)
	assert.Equal(t, 75, rejected)
	assert.Equal(t, int32(25), store.usedQuota(id))
}

func TestQuotaService_Usage(t *testing.T) {
	ctx := context.Background()
	store, svc := newQuotaFixture()
	id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RolePremium, MonthlyQuota: 500, UsedQuota: 42, Active: true})

	usage, err := svc.Usage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(42), usage.Used)
	assert.Equal(t, int32(500), usage.Limit)
	assert.False(t, usage.IsUnlimited)
	assert.Equal(t, int32(458), usage.Remaining())

	_, err = svc.Usage(ctx, uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestQuotaService_UpgradePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("self upgrade freemium to premium", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, UsedQuota: 20, Active: true})

		require.NoError(t, svc.UpgradePlan(ctx, id, id, domain.RolePremium))

		u, err := store.GetUserByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.RolePremium, u.Role)
		assert.Equal(t, "Premium", u.Plan)
		assert.Equal(t, int32(500), u.MonthlyQuota)
		assert.Equal(t, int32(20), u.UsedQuota, "upgrade must not reset usage")
		assert.Contains(t, store.auditedActions(), domain.AuditUpgradeToPremium)
	})

	t.Run("self downgrade is forbidden", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RolePremium, MonthlyQuota: 500, Active: true})

		err := svc.UpgradePlan(ctx, id, id, domain.RoleFreemium)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("non-admin cannot change another user", func(t *testing.T) {
		store, svc := newQuotaFixture()
		caller := store.addUser(domain.User{Email: "a@b.co", Role: domain.RolePremium, MonthlyQuota: 500, Active: true})
		target := store.addUser(domain.User{Email: "c@d.co", Role: domain.RoleFreemium, MonthlyQuota: 25, Active: true})

		err := svc.UpgradePlan(ctx, caller, target, domain.RolePremium)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

		u, _ := store.GetUserByID(ctx, target)
		assert.Equal(t, domain.RoleFreemium, u.Role)
	})

	t.Run("admin may apply any transition", func(t *testing.T) {
		store, svc := newQuotaFixture()
		admin := store.addUser(domain.User{Email: "root@b.co", Role: domain.RoleAdmin, MonthlyQuota: domain.UnlimitedQuota, Active: true})
		target := store.addUser(domain.User{Email: "c@d.co", Role: domain.RolePremium, MonthlyQuota: 500, UsedQuota: 300, Active: true})

		require.NoError(t, svc.UpgradePlan(ctx, admin, target, domain.RoleFreemium))

		u, _ := store.GetUserByID(ctx, target)
		assert.Equal(t, domain.RoleFreemium, u.Role)
		assert.Equal(t, int32(25), u.MonthlyQuota)
		assert.Equal(t, int32(300), u.UsedQuota, "downgrade leaves usage above the new cap on purpose")
	})

	t.Run("invalid role is rejected", func(t *testing.T) {
		store, svc := newQuotaFixture()
		id := store.addUser(domain.User{Email: "a@b.co", Role: domain.RoleFreemium, MonthlyQuota: 25, Active: true})

		err := svc.UpgradePlan(ctx, id, id, domain.Role("enterprise"))
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}
