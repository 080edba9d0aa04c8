package middleware

import (
	"errors"
	"strings"

	"callhub-service/internal/apperr"
	"callhub-service/internal/model"
	"callhub-service/internal/service"
	"callhub-service/internal/store"
	"callhub-service/pkg/jwtutil"
	"callhub-service/pkg/logger"
	"callhub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys set by the authorizer
const (
	ContextUser       = "auth_user"
	ContextUserID     = "user_id"
	ContextUserTenant = "auth_tenant_id"
)

// Auth validates the bearer token, loads the user, and enforces the tenant
// match. Tenant isolation is enforced twice: every query downstream is scoped
// to the authenticated user's tenant id, and this middleware independently
// rejects any request whose resolved tenant differs from the token's tenant.
// The mismatch check runs on every authenticated operation.
func Auth(jwt *jwtutil.JWTUtil, users store.UserStore, audit *service.AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				prometheus.RecordAuthError("missing_token")
				return respondError(c, apperr.Unauthenticated)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				prometheus.RecordAuthError("invalid_auth_format")
				return respondError(c, apperr.Unauthenticated)
			}

			claims, err := jwt.Validate(parts[1])
			if err != nil {
				// Expired and malformed tokens are logged distinctly but get
				// the same outward response.
				if errors.Is(err, jwtutil.ErrTokenExpired) {
					log.Warn("expired token")
					prometheus.RecordAuthError("token_expired")
				} else {
					log.Warn("invalid token", zap.Error(err))
					prometheus.RecordAuthError("invalid_token")
				}
				return respondError(c, apperr.Unauthenticated)
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil || !user.Active {
				log.Warn("token user not found or inactive", zap.Uint("user_id", claims.UserID))
				prometheus.RecordAuthError("unknown_user")
				return respondError(c, apperr.Unauthenticated)
			}

			// Tenant-match check, the linchpin of tenant isolation: a token is
			// authorization evidence only for the tenant it was minted with.
			if tenant, ok := ResolvedTenant(c); ok && tenant.ID != claims.TenantID {
				prometheus.RecordAuthError("cross_tenant")
				prometheus.CrossTenantViolationCounter.Inc()
				log.Warn("cross-tenant access attempt",
					zap.Uint("token_tenant_id", claims.TenantID),
					zap.Uint("request_tenant_id", tenant.ID),
					zap.Uint("user_id", user.ID))
				audit.Record(c.Request().Context(), service.AuditEntry{
					TenantID: &user.TenantID,
					UserID:   &user.ID,
					Action:   model.ActionCrossTenant,
					Details: model.Attrs{
						"token_tenant_id":   claims.TenantID,
						"request_tenant_id": tenant.ID,
						"path":              c.Request().URL.Path,
					},
					IP:        c.RealIP(),
					UserAgent: c.Request().UserAgent(),
				})
				// The outward message never reveals the other tenant's identity.
				return respondError(c, apperr.Forbidden)
			}

			// A token minted for a different tenant than the user's own record
			// is not valid evidence either.
			if user.TenantID != claims.TenantID {
				prometheus.RecordAuthError("tenant_claim_mismatch")
				return respondError(c, apperr.Unauthenticated)
			}

			c.Set(ContextUser, user)
			c.Set(ContextUserID, user.ID)
			c.Set(ContextUserTenant, user.TenantID)

			return next(c)
		}
	}
}

// RequireAdmin rejects authenticated requests from non-admin users. The
// response is the same opaque Forbidden used for tenant mismatches.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(ContextUser).(*model.User)
		if !ok {
			prometheus.RecordAuthError("missing_auth_context")
			return respondError(c, apperr.Unauthenticated)
		}
		if !user.IsAdmin() {
			prometheus.RecordAuthError("insufficient_role")
			logger.FromContext(c).Warn("admin route denied",
				zap.Uint("user_id", user.ID),
				zap.String("role", user.Role))
			return respondError(c, apperr.Forbidden)
		}
		return next(c)
	}
}

// AuthenticatedUser returns the user attached by Auth
func AuthenticatedUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(ContextUser).(*model.User)
	return user, ok
}

func respondError(c echo.Context, kind apperr.Kind) error {
	return c.JSON(kind.HTTPStatus(), echo.Map{"error": kind.PublicMessage()})
}
