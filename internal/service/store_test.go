package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadboost/leadboost/internal/domain"
	"github.com/leadboost/leadboost/internal/repository"
)

// memStore is an in-memory stand-in for repository.Store. ConsumeQuota
// mirrors the production conditional update: the check and the increment
// happen under one lock, so concurrent callers serialize exactly as they
// would at the database.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	leads    []domain.Lead
	sessions map[string]*domain.Session
	audits   []domain.AuditEntry

	insertLeadErr error
	auditErr      error
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*domain.User),
		sessions: make(map[string]*domain.Session),
	}
}

// addUser seeds a user and returns its id.
func (m *memStore) addUser(u domain.User) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Plan == "" {
		u.Plan = u.Role.PlanLabel()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = &u
	return u.ID
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, repository.ErrDuplicate
		}
	}
	c := *u
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.users[c.ID] = &c
	return copyUser(&c), nil
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *memStore) ConsumeQuota(_ context.Context, userID uuid.UUID, amount int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || !u.Active {
		return false, nil
	}
	if u.MonthlyQuota != domain.UnlimitedQuota && u.UsedQuota+amount > u.MonthlyQuota {
		return false, nil
	}
	u.UsedQuota += amount
	return true, nil
}

func (m *memStore) SetPlan(_ context.Context, userID uuid.UUID, role domain.Role, monthlyQuota int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	u.Plan = role.PlanLabel()
	u.MonthlyQuota = monthlyQuota
	return nil
}

func (m *memStore) UpdateUserAdmin(_ context.Context, userID uuid.UUID, changes domain.AdminUserChanges) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if changes.Role != nil {
		u.Role = *changes.Role
		u.Plan = changes.Role.PlanLabel()
	}
	if changes.Active != nil {
		u.Active = *changes.Active
	}
	if changes.MonthlyQuota != nil {
		u.MonthlyQuota = *changes.MonthlyQuota
	}
	return copyUser(u), nil
}

func (m *memStore) InsertLead(_ context.Context, lead *domain.Lead) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertLeadErr != nil {
		return uuid.Nil, m.insertLeadErr
	}
	c := *lead
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.leads = append(m.leads, c)
	return c.ID, nil
}

func (m *memStore) ListLeadsByUser(_ context.Context, userID uuid.UUID, limit int32) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lead
	for i := len(m.leads) - 1; i >= 0; i-- {
		if m.leads[i].UserID != userID {
			continue
		}
		out = append(out, m.leads[i])
		if limit > 0 && int32(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) CreateSession(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &domain.Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	m.sessions[tokenHash] = s
	return s, nil
}

func (m *memStore) GetSessionByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tokenHash]
	if !ok || s.IsExpired() {
		return nil, repository.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *memStore) DeleteSession(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

func (m *memStore) DeleteExpiredSessions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, hash)
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertAuditEntry(_ context.Context, actorID uuid.UUID, action domain.AuditAction, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auditErr != nil {
		return m.auditErr
	}
	m.audits = append(m.audits, domain.AuditEntry{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *memStore) ListAuditEntries(_ context.Context, limit int32) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for i := len(m.audits) - 1; i >= 0 && int32(len(out)) < limit; i-- {
		out = append(out, m.audits[i])
	}
	return out, nil
}

// auditedActions returns the recorded actions in order.
func (m *memStore) auditedActions() []domain.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]domain.AuditAction, len(m.audits))
	for i, e := range m.audits {
		actions[i] = e.Action
	}
	return actions
}

func (m *memStore) usedQuota(id uuid.UUID) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].UsedQuota
}

func (m *memStore) leadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leads)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingAuditStore errors on every write, for best-effort semantics tests.
type failingAuditStore struct{}

func (failingAuditStore) InsertAuditEntry(context.Context, uuid.UUID, domain.AuditAction, map[string]any) error {
	return errors.New("audit store down")
}

func (failingAuditStore) ListAuditEntries(context.Context, int32) ([]domain.AuditEntry, error) {
	return nil, errors.New("audit store down")
}
