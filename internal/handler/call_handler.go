package handler

import (
	"net/http"
	"strconv"

	"callhub-service/internal/middleware"
	"callhub-service/internal/service"
	"callhub-service/pkg/logger"
	"callhub-service/pkg/provider"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CallHandler serves the calls API
type CallHandler struct {
	calls *service.CallService
}

// NewCallHandler creates a call handler
func NewCallHandler(calls *service.CallService) *CallHandler {
	return &CallHandler{calls: calls}
}

// Create starts a new call with the external provider
func (h *CallHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		SystemPrompt string `json:"systemPrompt"`
		Model        string `json:"model"`
		Voice        string `json:"voice"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	call, err := h.calls.Create(c.Request().Context(), user.TenantID, user.ID, provider.CreateParams{
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Voice:        req.Voice,
	}, requestMeta(c))
	if err != nil {
		log.Error("call creation failed", zap.Uint("tenant_id", user.TenantID), zap.Error(err))
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"call": call})
}

// List returns the caller tenant's calls, newest first
func (h *CallHandler) List(c echo.Context) error {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	calls, err := h.calls.List(c.Request().Context(), user.TenantID, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"calls": calls})
}

// Status returns a call's current status, reconciled against the provider
func (h *CallHandler) Status(c echo.Context) error {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	callID, err := parseCallID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid call id"})
	}

	view, err := h.calls.GetStatus(c.Request().Context(), user.TenantID, callID, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

// Transcript returns a call's transcript, cached after the first successful fetch
func (h *CallHandler) Transcript(c echo.Context) error {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	callID, err := parseCallID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid call id"})
	}

	view, err := h.calls.GetTranscript(c.Request().Context(), user.TenantID, callID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

func parseCallID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
