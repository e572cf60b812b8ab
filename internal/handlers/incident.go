package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/incidia/backend/internal/auth"
	"github.com/incidia/backend/internal/controller"
	"github.com/incidia/backend/internal/models"
)

// IncidentHandler serves incident reporting and the per-company type
// catalog.
type IncidentHandler struct {
	Incidents *controller.IncidentService
}

func NewIncidentHandler(incidents *controller.IncidentService) *IncidentHandler {
	return &IncidentHandler{Incidents: incidents}
}

type mediaReq struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

type createIncidentReq struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TypeID      uuid.UUID  `json:"type_id"`
	DeviceID    uuid.UUID  `json:"device_id"`
	Media       []mediaReq `json:"media"`
}

// Create records a field report from an agent.
func (h *IncidentHandler) Create(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	claims := auth.Identity(c)

	var req createIncidentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	media := make([]controller.MediaInput, 0, len(req.Media))
	for _, m := range req.Media {
		kind := models.MediaKind(m.Kind)
		if kind != models.MediaImage && kind != models.MediaVideo {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media kind"})
		}
		media = append(media, controller.MediaInput{Path: m.Path, Kind: kind})
	}

	incident, err := h.Incidents.CreateIncident(c.Request().Context(), companyID, claims.UserID,
		req.Title, req.Description, req.TypeID, req.DeviceID, media)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, toIncidentResp(incident))
}

// List pages through the company's incidents, honoring the optional
// date-range, type and device filters.
func (h *IncidentHandler) List(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var filter models.IncidentFilter
	if v := c.QueryParam("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
		}
		filter.From = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		filter.To = &t
	}
	if v := c.QueryParam("type_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type_id"})
		}
		filter.TypeID = &id
	}
	if v := c.QueryParam("device_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device_id"})
		}
		filter.DeviceID = &id
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.PageSize, _ = strconv.Atoi(c.QueryParam("limit"))

	incidents, total, err := h.Incidents.ListIncidents(c.Request().Context(), companyID, filter)
	if err != nil {
		return httpError(c, err)
	}
	items := make([]incidentResp, 0, len(incidents))
	for i := range incidents {
		items = append(items, toIncidentResp(&incidents[i]))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return c.JSON(http.StatusOK, pageResp{TotalItems: total, Page: page, Items: items})
}

type incidentTypeReq struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

func (h *IncidentHandler) CreateType(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req incidentTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	it, err := h.Incidents.CreateIncidentType(c.Request().Context(), companyID, req.Name)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, toIncidentTypeResp(it))
}

func (h *IncidentHandler) ListTypes(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	types, err := h.Incidents.ListIncidentTypes(c.Request().Context(), companyID)
	if err != nil {
		return httpError(c, err)
	}
	resp := make([]incidentTypeResp, 0, len(types))
	for i := range types {
		resp = append(resp, toIncidentTypeResp(&types[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *IncidentHandler) UpdateType(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	typeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type id"})
	}
	var req incidentTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	it, err := h.Incidents.UpdateIncidentType(c.Request().Context(), companyID, typeID, req.Name, active)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toIncidentTypeResp(it))
}
