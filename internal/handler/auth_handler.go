package handler

import (
	"net/http"
	"strings"

	"callhub-service/internal/middleware"
	"callhub-service/internal/model"
	"callhub-service/internal/service"
	"callhub-service/pkg/logger"
	"callhub-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves signup and login
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Signup creates a tenant and its first admin user
func (h *AuthHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Subdomain  string `json:"subdomain"`
		TenantName string `json:"tenantName"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	if req.Email == "" || req.Password == "" || req.Subdomain == "" || req.TenantName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password, subdomain and tenantName are required"})
	}
	if !model.ValidSubdomain(req.Subdomain) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subdomain must be lowercase letters, digits and hyphens"})
	}

	result, err := h.accounts.Signup(c.Request().Context(), service.SignupParams{
		Email:      req.Email,
		Password:   req.Password,
		Subdomain:  req.Subdomain,
		TenantName: req.TenantName,
	}, requestMeta(c))
	if err != nil {
		log.Error("signup failed", zap.String("subdomain", req.Subdomain), zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"token":  result.Token,
		"user":   result.User,
		"tenant": result.Tenant,
	})
}

// Login authenticates a user within the resolved tenant
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	tenant, ok := middleware.ResolvedTenant(c)
	if !ok {
		// Login is tenant-scoped; without a resolved tenant there is nothing
		// to authenticate against.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	result, err := h.accounts.Login(c.Request().Context(), tenant, req.Email, req.Password, requestMeta(c))
	if err != nil {
		// Never reveal whether the email or the password was wrong.
		log.Warn("login failed", zap.String("subdomain", tenant.Subdomain))
		prometheus.RecordAuthError("login_failure")
		return writeError(c, err)
	}

	log.Info("user logged in",
		zap.Uint("user_id", result.User.ID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"token":  result.Token,
		"user":   result.User,
		"tenant": result.Tenant,
	})
}
