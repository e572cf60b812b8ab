package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/incidia/backend/internal/auth"
	"github.com/incidia/backend/internal/models"
)

// Server wires the handlers into an Echo instance and manages its
// lifecycle.
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger
	addr   string
}

func NewServer(port int, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	return &Server{
		echo:   e,
		logger: logger.Named("http"),
		addr:   fmt.Sprintf(":%d", port),
	}
}

// RegisterRoutes mounts every endpoint. Public routes are the health
// check and the auth pair; everything else requires a bearer token and
// the right role.
func (s *Server) RegisterRoutes(
	jwtSecret string,
	authH *AuthHandler,
	companyH *CompanyHandler,
	licenseH *LicenseHandler,
	deviceH *DeviceHandler,
	userH *UserHandler,
	incidentH *IncidentHandler,
) {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	public := s.echo.Group("/v1/auth")
	public.POST("/register", authH.Register)
	public.POST("/login", authH.Login)

	v1 := s.echo.Group("/v1")
	v1.Use(auth.Middleware(jwtSecret))

	global := v1.Group("", auth.RequireRole(models.RoleGlobalAdmin))
	global.GET("/companies", companyH.List)
	global.GET("/companies/:id", companyH.Get)
	global.POST("/companies/:id/toggle", companyH.Toggle)
	global.POST("/licenses/batch", licenseH.CreateBatch)
	global.GET("/licenses/summary", licenseH.Summary)

	admin := v1.Group("", auth.RequireRole(models.RoleCompanyAdmin))
	admin.POST("/devices", deviceH.Register)
	admin.GET("/devices", deviceH.List)
	admin.PUT("/devices/:id/agent", deviceH.AssignAgent)
	admin.POST("/users", userH.Create)
	admin.GET("/users", userH.List)
	admin.PUT("/users/:id", userH.Update)
	admin.POST("/users/:id/toggle", userH.Toggle)
	admin.POST("/incident-types", incidentH.CreateType)
	admin.PUT("/incident-types/:id", incidentH.UpdateType)

	member := v1.Group("", auth.RequireRole(models.RoleCompanyAdmin, models.RoleAgent))
	member.GET("/incident-types", incidentH.ListTypes)
	member.GET("/incidents", incidentH.List)

	agent := v1.Group("", auth.RequireRole(models.RoleAgent))
	agent.POST("/incidents", incidentH.Create)
}

// Start runs the HTTP server until it fails or is stopped.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.addr))
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown failed", zap.Error(err))
	}
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }
