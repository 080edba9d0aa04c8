package handler

import (
	"net/http"

	"callhub-service/internal/middleware"
	"callhub-service/internal/service"
	"callhub-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserHandler serves user provisioning and profile lookups
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler creates a user handler
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Me returns the authenticated user. The password hash is never serialized.
func (h *UserHandler) Me(c echo.Context) error {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// Create provisions a user within the caller's tenant (admin only). The new
// user always belongs to the authenticated admin's tenant; a client-supplied
// tenant id is never honored.
func (h *UserHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	admin, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	user, err := h.accounts.CreateUser(c.Request().Context(), admin.TenantID,
		req.Email, req.Password, req.Role, requestMeta(c))
	if err != nil {
		log.Error("user creation failed", zap.Uint("tenant_id", admin.TenantID), zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}
