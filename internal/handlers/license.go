package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/incidia/backend/internal/cache"
	"github.com/incidia/backend/internal/controller"
)

// LicenseHandler serves batch generation and pool summaries.
type LicenseHandler struct {
	Allocator *controller.AllocatorService
	Summaries *cache.SummaryCache
}

func NewLicenseHandler(allocator *controller.AllocatorService, summaries *cache.SummaryCache) *LicenseHandler {
	return &LicenseHandler{Allocator: allocator, Summaries: summaries}
}

type batchReq struct {
	CompanyID uuid.UUID `json:"company_id"`
	Count     int       `json:"count"`
}

// CreateBatch generates a batch of licenses for a company. A key
// collision surfaces as a 409; no rows are kept and the client
// resubmits the batch.
func (h *LicenseHandler) CreateBatch(c echo.Context) error {
	var req batchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	licenses, err := h.Allocator.GenerateLicenseBatch(ctx, req.CompanyID, req.Count)
	if err != nil {
		return httpError(c, err)
	}
	h.Summaries.Invalidate(ctx, req.CompanyID)

	resp := make([]licenseResp, 0, len(licenses))
	for i := range licenses {
		resp = append(resp, toLicenseResp(&licenses[i]))
	}
	return c.JSON(http.StatusCreated, resp)
}

// Summary reports license counts for one company, served from the
// cache when warm.
func (h *LicenseHandler) Summary(c echo.Context) error {
	companyID, err := uuid.Parse(c.QueryParam("company_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid company id"})
	}
	ctx := c.Request().Context()
	if cached := h.Summaries.Get(ctx, companyID); cached != nil {
		return c.JSON(http.StatusOK, cached)
	}
	summary, err := h.Allocator.PoolSummary(ctx, companyID)
	if err != nil {
		return httpError(c, err)
	}
	h.Summaries.Set(ctx, summary)
	return c.JSON(http.StatusOK, summary)
}
