package store

import (
	"context"

	"callhub-service/internal/model"
)

// TenantStore is the tenant directory
type TenantStore interface {
	// FindBySubdomain returns the active tenant for a subdomain
	FindBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error)
	FindByID(ctx context.Context, id uint) (*model.Tenant, error)
	Create(ctx context.Context, tenant *model.Tenant) error
	UpdateBranding(ctx context.Context, id uint, logoURL, primaryColor string) (*model.Tenant, error)
}

// UserStore is the credential store. Email lookups are always tenant-scoped;
// email is not a global identifier.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, tenantID uint, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// CallStore persists calls. Reads are tenant-scoped at the query so a call
// owned by another tenant is indistinguishable from a missing one.
type CallStore interface {
	Create(ctx context.Context, call *model.Call) error
	FindForTenant(ctx context.Context, tenantID, callID uint) (*model.Call, error)
	ListForTenant(ctx context.Context, tenantID uint, limit int) ([]model.Call, error)
	Update(ctx context.Context, call *model.Call) error
}

// AuditStore is the append-only audit log
type AuditStore interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	ListForTenant(ctx context.Context, tenantID uint, limit int) ([]model.AuditLog, error)
}

// Store bundles access to all persisted entities. InTx runs fn against a
// transactional view; fn's error rolls the transaction back.
type Store interface {
	Tenants() TenantStore
	Users() UserStore
	Calls() CallStore
	Audit() AuditStore
	InTx(ctx context.Context, fn func(Store) error) error
}
