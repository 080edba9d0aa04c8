package handler

import (
	"net/http"

	"callhub-service/internal/middleware"
	"callhub-service/internal/service"

	"github.com/labstack/echo/v4"
)

// TenantHandler serves tenant info and branding updates
type TenantHandler struct {
	accounts *service.AccountService
}

// NewTenantHandler creates a tenant handler
func NewTenantHandler(accounts *service.AccountService) *TenantHandler {
	return &TenantHandler{accounts: accounts}
}

// Current returns the authenticated caller's tenant
func (h *TenantHandler) Current(c echo.Context) error {
	tenant, ok := middleware.ResolvedTenant(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tenant": tenant})
}

// UpdateBranding updates the caller tenant's branding (admin only)
func (h *TenantHandler) UpdateBranding(c echo.Context) error {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		LogoURL      string `json:"logoUrl"`
		PrimaryColor string `json:"primaryColor"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tenant, err := h.accounts.UpdateBranding(c.Request().Context(), user.TenantID, user.ID,
		req.LogoURL, req.PrimaryColor, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"tenant": tenant})
}
