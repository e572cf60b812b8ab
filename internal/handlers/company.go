package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/incidia/backend/internal/controller"
)

// CompanyHandler serves the global-admin company console.
type CompanyHandler struct {
	Tenant *controller.TenantService
}

func NewCompanyHandler(tenant *controller.TenantService) *CompanyHandler {
	return &CompanyHandler{Tenant: tenant}
}

func (h *CompanyHandler) List(c echo.Context) error {
	companies, err := h.Tenant.ListCompanies(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	resp := make([]companyResp, 0, len(companies))
	for i := range companies {
		resp = append(resp, toCompanyResp(&companies[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns one company by id.
func (h *CompanyHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid company id"})
	}
	company, err := h.Tenant.GetCompany(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toCompanyResp(company))
}

// Toggle flips a company's active flag, cascading to its users and
// licenses.
func (h *CompanyHandler) Toggle(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid company id"})
	}
	company, err := h.Tenant.ToggleActive(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toCompanyResp(company))
}
