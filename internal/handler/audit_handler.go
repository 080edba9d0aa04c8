package handler

import (
	"net/http"
	"strconv"

	"callhub-service/internal/middleware"
	"callhub-service/internal/model"
	"callhub-service/internal/service"
	"callhub-service/internal/store"

	"github.com/labstack/echo/v4"
)

const defaultAuditLimit = 100

// AuditHandler serves the tenant-scoped audit trail (admin only)
type AuditHandler struct {
	audit    store.AuditStore
	recorder *service.AuditRecorder
}

// NewAuditHandler creates an audit handler
func NewAuditHandler(audit store.AuditStore, recorder *service.AuditRecorder) *AuditHandler {
	return &AuditHandler{audit: audit, recorder: recorder}
}

// List returns the caller tenant's audit entries, newest first
func (h *AuditHandler) List(c echo.Context) error {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 1000 {
		limit = defaultAuditLimit
	}

	entries, err := h.audit.ListForTenant(c.Request().Context(), user.TenantID, limit)
	if err != nil {
		return writeError(c, err)
	}

	h.recorder.Record(c.Request().Context(), service.AuditEntry{
		TenantID:  &user.TenantID,
		UserID:    &user.ID,
		Action:    model.ActionDataAccessed,
		Details:   model.Attrs{"resource": "audit_logs", "limit": limit},
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})

	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
