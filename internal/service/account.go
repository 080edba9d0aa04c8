package service

import (
	"context"

	"callhub-service/internal/apperr"
	"callhub-service/internal/model"
	"callhub-service/internal/store"
	"callhub-service/pkg/jwtutil"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SignupParams are the inputs for creating a tenant with its first admin user
type SignupParams struct {
	Email      string
	Password   string
	Subdomain  string
	TenantName string
}

// AuthResult is returned by signup and login
type AuthResult struct {
	Token  string
	User   *model.User
	Tenant *model.Tenant
}

// AccountService handles tenant signup and tenant-scoped login
type AccountService struct {
	store store.Store
	jwt   *jwtutil.JWTUtil
	audit *AuditRecorder
	log   *zap.Logger
}

// NewAccountService creates an account service
func NewAccountService(st store.Store, jwt *jwtutil.JWTUtil, audit *AuditRecorder, log *zap.Logger) *AccountService {
	return &AccountService{store: st, jwt: jwt, audit: audit, log: log}
}

// Signup creates a tenant and its first user in one transaction; the first
// user of a tenant is always an admin. A duplicate subdomain rolls the whole
// signup back so no orphaned tenant or user survives.
func (s *AccountService) Signup(ctx context.Context, params SignupParams, meta RequestMeta) (*AuthResult, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	tenant := &model.Tenant{
		Subdomain:    params.Subdomain,
		Name:         params.TenantName,
		LogoURL:      model.DefaultLogoURL,
		PrimaryColor: model.DefaultPrimaryColor,
		Active:       true,
	}
	user := &model.User{
		Email:    params.Email,
		Password: string(hashed),
		Role:     model.RoleAdmin,
		Active:   true,
	}

	err = s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return err
		}
		user.TenantID = tenant.ID
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.Generate(user.ID, tenant.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to generate token", err)
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID: &tenant.ID,
		UserID:   &user.ID,
		Action:   model.ActionTenantCreated,
		Details: model.Attrs{
			"subdomain": tenant.Subdomain,
			"name":      tenant.Name,
		},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	s.log.Info("tenant signed up",
		zap.String("subdomain", tenant.Subdomain),
		zap.Uint("tenant_id", tenant.ID))

	return &AuthResult{Token: token, User: user, Tenant: tenant}, nil
}

// Login authenticates a user within the given tenant. The outward error never
// reveals whether the email exists or the password was wrong.
func (s *AccountService) Login(ctx context.Context, tenant *model.Tenant, email, password string, meta RequestMeta) (*AuthResult, error) {
	invalid := apperr.New(apperr.Unauthenticated, "invalid credentials")

	user, err := s.store.Users().FindByEmail(ctx, tenant.ID, email)
	if err != nil {
		s.recordFailedLogin(ctx, &tenant.ID, nil, email, meta)
		return nil, invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordFailedLogin(ctx, &tenant.ID, &user.ID, email, meta)
		return nil, invalid
	}

	if !user.Active {
		s.recordFailedLogin(ctx, &tenant.ID, &user.ID, email, meta)
		return nil, invalid
	}

	token, err := s.jwt.Generate(user.ID, user.TenantID, user.Email, user.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to generate token", err)
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID:  &tenant.ID,
		UserID:    &user.ID,
		Action:    model.ActionUserLogin,
		Details:   model.Attrs{"email": user.Email},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	return &AuthResult{Token: token, User: user, Tenant: tenant}, nil
}

// CreateUser provisions an additional user within a tenant
func (s *AccountService) CreateUser(ctx context.Context, tenantID uint, email, password, role string, meta RequestMeta) (*model.User, error) {
	if role != model.RoleAdmin {
		role = model.RoleUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	user := &model.User{
		TenantID: tenantID,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		Active:   true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID:  &tenantID,
		UserID:    &user.ID,
		Action:    model.ActionUserCreated,
		Details:   model.Attrs{"email": user.Email, "role": user.Role},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	return user, nil
}

// UpdateBranding updates a tenant's branding, applying defaults for empty values
func (s *AccountService) UpdateBranding(ctx context.Context, tenantID uint, userID uint, logoURL, primaryColor string, meta RequestMeta) (*model.Tenant, error) {
	if primaryColor == "" {
		primaryColor = model.DefaultPrimaryColor
	}

	tenant, err := s.store.Tenants().UpdateBranding(ctx, tenantID, logoURL, primaryColor)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		TenantID: &tenantID,
		UserID:   &userID,
		Action:   model.ActionBrandingUpdated,
		Details: model.Attrs{
			"logo_url":      logoURL,
			"primary_color": primaryColor,
		},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})

	return tenant, nil
}

func (s *AccountService) recordFailedLogin(ctx context.Context, tenantID, userID *uint, email string, meta RequestMeta) {
	s.audit.Record(ctx, AuditEntry{
		TenantID:  tenantID,
		UserID:    userID,
		Action:    model.ActionUserFailedLogin,
		Details:   model.Attrs{"email": email},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
}
