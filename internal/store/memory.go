package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"callhub-service/internal/apperr"
	"callhub-service/internal/model"
)

// Memory is an in-memory Store used by tests and local development. InTx
// snapshots state before running fn and restores it when fn fails, matching
// the rollback behavior of the database-backed store.
type Memory struct {
	mu      sync.Mutex
	tenants map[uint]model.Tenant
	users   map[uint]model.User
	calls   map[uint]model.Call
	audit   []model.AuditLog
	nextID  uint

	// AuditCreateErr, when set, makes audit writes fail. Used to verify the
	// audit sink swallows storage failures.
	AuditCreateErr error
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		tenants: make(map[uint]model.Tenant),
		users:   make(map[uint]model.User),
		calls:   make(map[uint]model.Call),
		nextID:  1,
	}
}

func (m *Memory) Tenants() TenantStore { return (*memTenantStore)(m) }
func (m *Memory) Users() UserStore     { return (*memUserStore)(m) }
func (m *Memory) Calls() CallStore     { return (*memCallStore)(m) }
func (m *Memory) Audit() AuditStore    { return (*memAuditStore)(m) }

// InTx runs fn with snapshot/restore semantics
func (m *Memory) InTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	tenants := make(map[uint]model.Tenant, len(m.tenants))
	for k, v := range m.tenants {
		tenants[k] = v
	}
	users := make(map[uint]model.User, len(m.users))
	for k, v := range m.users {
		users[k] = v
	}
	calls := make(map[uint]model.Call, len(m.calls))
	for k, v := range m.calls {
		calls[k] = v
	}
	audit := append([]model.AuditLog(nil), m.audit...)
	nextID := m.nextID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.tenants = tenants
		m.users = users
		m.calls = calls
		m.audit = audit
		m.nextID = nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) allocID() uint {
	id := m.nextID
	m.nextID++
	return id
}

type memTenantStore Memory

func (s *memTenantStore) FindBySubdomain(_ context.Context, subdomain string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Subdomain == subdomain && t.Active {
			tenant := t
			return &tenant, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "tenant not found")
}

func (s *memTenantStore) FindByID(_ context.Context, id uint) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[id]; ok {
		tenant := t
		return &tenant, nil
	}
	return nil, apperr.New(apperr.NotFound, "tenant not found")
}

func (s *memTenantStore) Create(_ context.Context, tenant *model.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Subdomain == tenant.Subdomain {
			return apperr.New(apperr.Conflict, "subdomain already in use")
		}
	}
	tenant.ID = (*Memory)(s).allocID()
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = tenant.CreatedAt
	s.tenants[tenant.ID] = *tenant
	return nil
}

func (s *memTenantStore) UpdateBranding(_ context.Context, id uint, logoURL, primaryColor string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "tenant not found")
	}
	t.LogoURL = logoURL
	t.PrimaryColor = primaryColor
	t.UpdatedAt = time.Now()
	s.tenants[id] = t
	tenant := t
	return &tenant, nil
}

type memUserStore Memory

func (s *memUserStore) FindByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		user := u
		return &user, nil
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (s *memUserStore) FindByEmail(_ context.Context, tenantID uint, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (s *memUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TenantID == user.TenantID && u.Email == user.Email {
			return apperr.New(apperr.Conflict, "email already registered for tenant")
		}
	}
	user.ID = (*Memory)(s).allocID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

type memCallStore Memory

func (s *memCallStore) Create(_ context.Context, call *model.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call.ID = (*Memory)(s).allocID()
	call.CreatedAt = time.Now()
	call.UpdatedAt = call.CreatedAt
	s.calls[call.ID] = *call
	return nil
}

func (s *memCallStore) FindForTenant(_ context.Context, tenantID, callID uint) (*model.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[callID]
	if !ok || c.TenantID != tenantID {
		return nil, apperr.New(apperr.NotFound, "call not found")
	}
	call := c
	return &call, nil
}

func (s *memCallStore) ListForTenant(_ context.Context, tenantID uint, limit int) ([]model.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var calls []model.Call
	for _, c := range s.calls {
		if c.TenantID == tenantID {
			calls = append(calls, c)
		}
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].CreatedAt.After(calls[j].CreatedAt) })
	if limit > 0 && len(calls) > limit {
		calls = calls[:limit]
	}
	return calls, nil
}

func (s *memCallStore) Update(_ context.Context, call *model.Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[call.ID]; !ok {
		return apperr.New(apperr.NotFound, "call not found")
	}
	call.UpdatedAt = time.Now()
	s.calls[call.ID] = *call
	return nil
}

type memAuditStore Memory

func (s *memAuditStore) Create(_ context.Context, entry *model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AuditCreateErr != nil {
		return s.AuditCreateErr
	}
	entry.ID = (*Memory)(s).allocID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *memAuditStore) ListForTenant(_ context.Context, tenantID uint, limit int) ([]model.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []model.AuditLog
	for _, e := range s.audit {
		if e.TenantID != nil && *e.TenantID == tenantID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Entries returns a copy of every audit entry, for assertions in tests
func (s *Memory) Entries() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.audit...)
}
