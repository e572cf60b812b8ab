package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/incidia/backend/internal/controller"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	Auth   *controller.AuthService
	Tenant *controller.TenantService
}

func NewAuthHandler(authSvc *controller.AuthService, tenant *controller.TenantService) *AuthHandler {
	return &AuthHandler{Auth: authSvc, Tenant: tenant}
}

type registerReq struct {
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// Register creates a company together with its first admin account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	company, admin, err := h.Tenant.RegisterCompany(c.Request().Context(), req.CompanyName, req.Email, req.Password)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"company": toCompanyResp(company),
		"admin":   toUserResp(admin),
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UniqueID string `json:"unique_id"`
}

type loginResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	DeviceID  *string   `json:"device_id,omitempty"`
}

// Login authenticates a user. Agents additionally send the device's
// unique identifier and get the resolved device ID back.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	result, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password, req.UniqueID)
	if err != nil {
		return httpError(c, err)
	}
	resp := loginResp{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Role:      string(result.Role),
	}
	if result.DeviceID != nil {
		id := result.DeviceID.String()
		resp.DeviceID = &id
	}
	return c.JSON(http.StatusOK, resp)
}
