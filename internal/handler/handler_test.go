package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/auth"
	"github.com/leadboost/leadboost/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withUser injects an authenticated user the way the middleware would.
func withUser(r *http.Request, u *domain.User) *http.Request {
	return r.WithContext(auth.SetUser(r.Context(), u))
}

func testUser() *domain.User {
	return &domain.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		Role:         domain.RoleFreemium,
		Plan:         "Freemium",
		MonthlyQuota: 25,
		Active:       true,
	}
}

// fakeLeadService implements service.LeadService with function hooks.
type fakeLeadService struct {
	ingest         func(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error)
	ingestEnriched func(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error)
	ingestBulk     func(ctx context.Context, userID uuid.UUID, rows []domain.LeadRow, enrich bool) (*domain.BulkResult, error)
	recent         func(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Lead, error)
	listFor        func(ctx context.Context, callerID, ownerID uuid.UUID) ([]domain.Lead, error)
}

func (f *fakeLeadService) Ingest(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error) {
	return f.ingest(ctx, userID, params)
}

func (f *fakeLeadService) IngestEnriched(ctx context.Context, userID uuid.UUID, params domain.IngestParams) (uuid.UUID, error) {
	return f.ingestEnriched(ctx, userID, params)
}

func (f *fakeLeadService) IngestBulk(ctx context.Context, userID uuid.UUID, rows []domain.LeadRow, enrich bool) (*domain.BulkResult, error) {
	return f.ingestBulk(ctx, userID, rows, enrich)
}

func (f *fakeLeadService) Recent(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Lead, error) {
	return f.recent(ctx, userID, limit)
}

func (f *fakeLeadService) ListFor(ctx context.Context, callerID, ownerID uuid.UUID) ([]domain.Lead, error) {
	return f.listFor(ctx, callerID, ownerID)
}

// fakeUserService implements service.UserService with function hooks.
type fakeUserService struct {
	register          func(ctx context.Context, params domain.RegisterParams) (*domain.User, error)
	login             func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	logout            func(ctx context.Context, token string) error
	getByID           func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getBySessionToken func(ctx context.Context, token string) (*domain.User, error)
}

func (f *fakeUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	return f.register(ctx, params)
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return f.login(ctx, email, password)
}

func (f *fakeUserService) Logout(ctx context.Context, token string) error {
	return f.logout(ctx, token)
}

func (f *fakeUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return f.getByID(ctx, id)
}

func (f *fakeUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	return f.getBySessionToken(ctx, token)
}

func (f *fakeUserService) DeleteExpiredSessions(ctx context.Context) error {
	return nil
}

// fakeQuotaService implements service.QuotaService with function hooks.
type fakeQuotaService struct {
	tryConsume  func(ctx context.Context, userID uuid.UUID, amount int32) error
	usage       func(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error)
	upgradePlan func(ctx context.Context, callerID, targetID uuid.UUID, newRole domain.Role) error
}

func (f *fakeQuotaService) TryConsume(ctx context.Context, userID uuid.UUID, amount int32) error {
	return f.tryConsume(ctx, userID, amount)
}

func (f *fakeQuotaService) Usage(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error) {
	return f.usage(ctx, userID)
}

func (f *fakeQuotaService) UpgradePlan(ctx context.Context, callerID, targetID uuid.UUID, newRole domain.Role) error {
	return f.upgradePlan(ctx, callerID, targetID, newRole)
}
