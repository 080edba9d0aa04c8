package store

import (
	"context"
	"errors"
	"time"

	"callhub-service/internal/apperr"
	"callhub-service/internal/model"
	"callhub-service/prometheus"

	"gorm.io/gorm"
)

// GormStore implements Store on top of gorm/postgres
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given gorm handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Tenants() TenantStore { return &gormTenantStore{db: s.db} }
func (s *GormStore) Users() UserStore     { return &gormUserStore{db: s.db} }
func (s *GormStore) Calls() CallStore     { return &gormCallStore{db: s.db} }
func (s *GormStore) Audit() AuditStore    { return &gormAuditStore{db: s.db} }

// InTx runs fn inside a database transaction
func (s *GormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

type gormTenantStore struct {
	db *gorm.DB
}

func (s *gormTenantStore) FindBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	result := s.db.WithContext(ctx).Where("subdomain = ? AND active = ?", subdomain, true).First(&tenant)
	if result.Error != nil {
		return nil, translateError(result.Error, "tenant not found")
	}
	return &tenant, nil
}

func (s *gormTenantStore) FindByID(ctx context.Context, id uint) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := s.db.WithContext(ctx).First(&tenant, id); result.Error != nil {
		return nil, translateError(result.Error, "tenant not found")
	}
	return &tenant, nil
}

func (s *gormTenantStore) Create(ctx context.Context, tenant *model.Tenant) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var existing model.Tenant
	result := s.db.WithContext(ctx).Unscoped().Where("subdomain = ?", tenant.Subdomain).First(&existing)
	if result.Error == nil {
		return apperr.New(apperr.Conflict, "subdomain already in use")
	}

	if result := s.db.WithContext(ctx).Create(tenant); result.Error != nil {
		return translateError(result.Error, "failed to create tenant")
	}
	return nil
}

func (s *gormTenantStore) UpdateBranding(ctx context.Context, id uint, logoURL, primaryColor string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	var tenant model.Tenant
	if result := s.db.WithContext(ctx).First(&tenant, id); result.Error != nil {
		return nil, translateError(result.Error, "tenant not found")
	}

	tenant.LogoURL = logoURL
	tenant.PrimaryColor = primaryColor
	if result := s.db.WithContext(ctx).Model(&tenant).Updates(map[string]interface{}{
		"logo_url":      logoURL,
		"primary_color": primaryColor,
	}); result.Error != nil {
		return nil, translateError(result.Error, "failed to update branding")
	}
	return &tenant, nil
}

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := s.db.WithContext(ctx).First(&user, id); result.Error != nil {
		return nil, translateError(result.Error, "user not found")
	}
	return &user, nil
}

func (s *gormUserStore) FindByEmail(ctx context.Context, tenantID uint, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := s.db.WithContext(ctx).Where("tenant_id = ? AND email = ?", tenantID, email).First(&user)
	if result.Error != nil {
		return nil, translateError(result.Error, "user not found")
	}
	return &user, nil
}

func (s *gormUserStore) Create(ctx context.Context, user *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var existing model.User
	result := s.db.WithContext(ctx).Where("tenant_id = ? AND email = ?", user.TenantID, user.Email).First(&existing)
	if result.Error == nil {
		return apperr.New(apperr.Conflict, "email already registered for tenant")
	}

	if result := s.db.WithContext(ctx).Create(user); result.Error != nil {
		return translateError(result.Error, "failed to create user")
	}
	return nil
}

type gormCallStore struct {
	db *gorm.DB
}

func (s *gormCallStore) Create(ctx context.Context, call *model.Call) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := s.db.WithContext(ctx).Create(call); result.Error != nil {
		return translateError(result.Error, "failed to create call")
	}
	return nil
}

func (s *gormCallStore) FindForTenant(ctx context.Context, tenantID, callID uint) (*model.Call, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var call model.Call
	result := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&call, callID)
	if result.Error != nil {
		return nil, translateError(result.Error, "call not found")
	}
	return &call, nil
}

func (s *gormCallStore) ListForTenant(ctx context.Context, tenantID uint, limit int) ([]model.Call, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var calls []model.Call
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&calls); result.Error != nil {
		return nil, translateError(result.Error, "failed to list calls")
	}
	return calls, nil
}

func (s *gormCallStore) Update(ctx context.Context, call *model.Call) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := s.db.WithContext(ctx).Save(call); result.Error != nil {
		return translateError(result.Error, "failed to update call")
	}
	return nil
}

type gormAuditStore struct {
	db *gorm.DB
}

func (s *gormAuditStore) Create(ctx context.Context, entry *model.AuditLog) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := s.db.WithContext(ctx).Create(entry); result.Error != nil {
		return translateError(result.Error, "failed to write audit entry")
	}
	return nil
}

func (s *gormAuditStore) ListForTenant(ctx context.Context, tenantID uint, limit int) ([]model.AuditLog, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var entries []model.AuditLog
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&entries); result.Error != nil {
		return nil, translateError(result.Error, "failed to list audit entries")
	}
	return entries, nil
}

// translateError maps gorm errors into the service error taxonomy
func translateError(err error, message string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.NotFound, message, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.Conflict, message, err)
	default:
		return apperr.Wrap(apperr.UpstreamUnavailable, message, err)
	}
}
