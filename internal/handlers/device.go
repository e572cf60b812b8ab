package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/incidia/backend/internal/auth"
	"github.com/incidia/backend/internal/cache"
	"github.com/incidia/backend/internal/controller"
	"github.com/incidia/backend/internal/models"
)

// DeviceHandler serves device registration and agent assignment for
// company admins.
type DeviceHandler struct {
	Allocator *controller.AllocatorService
	Binder    *controller.BinderService
	Summaries *cache.SummaryCache
}

func NewDeviceHandler(allocator *controller.AllocatorService, binder *controller.BinderService, summaries *cache.SummaryCache) *DeviceHandler {
	return &DeviceHandler{Allocator: allocator, Binder: binder, Summaries: summaries}
}

// companyScope pulls the caller's company from the verified claims.
func companyScope(c echo.Context) (uuid.UUID, bool) {
	claims := auth.Identity(c)
	if claims == nil || claims.CompanyID == nil {
		return uuid.Nil, false
	}
	return *claims.CompanyID, true
}

type registerDeviceReq struct {
	Name     string `json:"name"`
	UniqueID string `json:"unique_id"`
	Platform string `json:"platform"`
	Model    string `json:"model"`
}

// Register creates a device and claims one available license for it.
// Lock-timeout contention is retried a few times before giving up.
func (h *DeviceHandler) Register(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req registerDeviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	var (
		device  *models.Device
		license *models.License
	)
	err := controller.RetryOnContention(ctx, 3, func() error {
		var err error
		device, license, err = h.Allocator.RegisterDevice(ctx, companyID, req.Name, req.UniqueID, models.Platform(req.Platform), req.Model)
		return err
	})
	if err != nil {
		return httpError(c, err)
	}
	h.Summaries.Invalidate(ctx, companyID)

	return c.JSON(http.StatusCreated, echo.Map{
		"device":  toDeviceResp(device),
		"license": toLicenseResp(license),
	})
}

func (h *DeviceHandler) List(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	devices, err := h.Binder.ListDevices(c.Request().Context(), companyID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, devices)
}

type assignAgentReq struct {
	AgentID *uuid.UUID `json:"agent_id"`
}

// AssignAgent binds or clears the device's agent. A null agent_id
// unassigns unconditionally.
func (h *DeviceHandler) AssignAgent(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
	}
	var req assignAgentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	device, err := h.Binder.AssignAgent(c.Request().Context(), companyID, deviceID, req.AgentID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toDeviceResp(device))
}
