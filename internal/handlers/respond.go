// Package handlers exposes the service layer over HTTP with Echo.
// Handlers stay thin: bind, call the controller, map typed errors to
// statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	e "github.com/incidia/backend/internal/errors"
)

// httpError translate a service error into the HTTP response. Unknown
// errors become opaque 500s; nothing internal leaks to clients.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound),
		errors.Is(err, e.ErrDeviceNotFound),
		errors.Is(err, e.ErrAgentIneligible):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, e.ErrAccountInactive),
		errors.Is(err, e.ErrDeviceNotLicensed),
		errors.Is(err, e.ErrDeviceOwnedByOther):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, e.ErrDuplicateName),
		errors.Is(err, e.ErrEmailExists),
		errors.Is(err, e.ErrDeviceExists),
		errors.Is(err, e.ErrAgentAssigned),
		errors.Is(err, e.ErrKeyConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidInput),
		errors.Is(err, e.ErrDeviceIDRequired),
		errors.Is(err, e.ErrNoLicense):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, e.ErrContention):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "resource contention, retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
