package handler

import (
	"callhub-service/internal/apperr"
	"callhub-service/internal/service"

	"github.com/labstack/echo/v4"
)

// writeError maps a service error onto its HTTP status with the opaque
// outward message; internal detail stays in the logs
func writeError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	return c.JSON(kind.HTTPStatus(), echo.Map{"error": kind.PublicMessage()})
}

// requestMeta collects the request attributes recorded on audit entries
func requestMeta(c echo.Context) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
