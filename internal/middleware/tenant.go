package middleware

import (
	"strings"

	"callhub-service/internal/apperr"
	"callhub-service/internal/model"
	"callhub-service/internal/store"
	"callhub-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHeader lets clients name the tenant explicitly. Used in development
// and test contexts where DNS-based subdomains are unavailable; it takes
// precedence over the request host.
const TenantHeader = "X-Tenant-Subdomain"

// Context keys set by the tenant resolver
const (
	ContextTenant   = "tenant"
	ContextTenantID = "tenant_id"
)

// tenantExemptPrefixes are path prefixes that must work before a tenant
// context exists (signup has no tenant yet, health/metrics have none at all).
var tenantExemptPrefixes = []string{
	"/signup",
	"/health",
	"/metrics",
}

// TenantExempt reports whether a path is exempt from requiring a resolved tenant
func TenantExempt(path string) bool {
	for _, prefix := range tenantExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// TenantResolver derives the acting tenant from the explicit tenant header or
// the request host's first label and stores it in the request context. The
// resolver never fails the request: with no tenant resolved, downstream
// guards decide whether that is fatal.
func TenantResolver(tenants store.TenantStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			subdomain := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(TenantHeader)))
			if subdomain == "" {
				subdomain = SubdomainFromHost(c.Request().Host)
			}
			if subdomain == "" {
				return next(c)
			}

			tenant, err := tenants.FindBySubdomain(c.Request().Context(), subdomain)
			if err != nil {
				if !apperr.Is(err, apperr.NotFound) {
					// Lookup failure (storage unavailable) must not fail the
					// request; proceed unresolved.
					log.Warn("tenant lookup failed", zap.String("subdomain", subdomain), zap.Error(err))
				}
				return next(c)
			}

			c.Set(ContextTenant, tenant)
			c.Set(ContextTenantID, tenant.ID)
			log.Debug("tenant resolved",
				zap.String("subdomain", tenant.Subdomain),
				zap.Uint("tenant_id", tenant.ID))

			return next(c)
		}
	}
}

// SubdomainFromHost extracts a candidate subdomain from a request host.
// Returns "" for reserved labels and bare hosts.
func SubdomainFromHost(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	label, _, found := strings.Cut(host, ".")
	if !found {
		// Bare host like "localhost" carries no subdomain.
		if label == "localhost" {
			return ""
		}
	}
	label = strings.ToLower(label)
	if !model.ValidSubdomain(label) {
		return ""
	}
	return label
}

// RequireTenant rejects requests that reached a tenant-scoped route without a
// resolved tenant. The message stays opaque: an unknown subdomain and a
// deactivated tenant look the same from outside.
func RequireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if TenantExempt(c.Request().URL.Path) {
			return next(c)
		}
		if _, ok := c.Get(ContextTenant).(*model.Tenant); !ok {
			logger.FromContext(c).Warn("no tenant resolved for tenant-scoped route",
				zap.String("host", c.Request().Host),
				zap.String("path", c.Request().URL.Path))
			return respondError(c, apperr.NotFound)
		}
		return next(c)
	}
}

// ResolvedTenant returns the tenant set by the resolver, if any
func ResolvedTenant(c echo.Context) (*model.Tenant, bool) {
	tenant, ok := c.Get(ContextTenant).(*model.Tenant)
	return tenant, ok
}
