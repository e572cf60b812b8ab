package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/incidia/backend/internal/controller"
	"github.com/incidia/backend/internal/models"
)

// UserHandler serves company-scoped member management.
type UserHandler struct {
	Users *controller.UserService
}

func NewUserHandler(users *controller.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UserHandler) Create(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	user, err := h.Users.CreateUser(c.Request().Context(), companyID, req.Email, req.Password, models.Role(req.Role))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResp(user))
}

func (h *UserHandler) List(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("limit"))
	users, total, err := h.Users.ListUsers(c.Request().Context(), companyID, page, size)
	if err != nil {
		return httpError(c, err)
	}
	items := make([]userResp, 0, len(users))
	for i := range users {
		items = append(items, toUserResp(&users[i]))
	}
	if page < 1 {
		page = 1
	}
	return c.JSON(http.StatusOK, pageResp{TotalItems: total, Page: page, Items: items})
}

type updateUserReq struct {
	Email  *string `json:"email"`
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

func (h *UserHandler) Update(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	update := &models.UserUpdate{ID: userID, Email: req.Email, Active: req.Active}
	if req.Role != nil {
		role := models.Role(*req.Role)
		update.Role = &role
	}
	user, err := h.Users.UpdateUser(c.Request().Context(), companyID, update)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(user))
}

func (h *UserHandler) Toggle(c echo.Context) error {
	companyID, ok := companyScope(c)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	user, err := h.Users.ToggleActive(c.Request().Context(), companyID, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(user))
}
