package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salesflow/core/internal/application/services"
	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

// UserHandler exposes the admin user operations.
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService *services.UserService, appLogger *logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: appLogger}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req ports.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.CreateUser(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// GetCurrentUser handles GET /users/me
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	actor := actorFromContext(c)

	user, err := h.userService.GetUser(c.Request().Context(), actor, actor.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userService.GetUser(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c echo.Context) error {
	var filter ports.UserFilter
	if raw := c.QueryParam("role"); raw != "" {
		role := entities.Role(raw)
		if !role.IsValid() {
			return entities.NewValidation("invalid role filter", "role")
		}
		filter.Role = &role
	}
	if raw := c.QueryParam("manager_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return entities.NewValidation("invalid manager_id filter", "manager_id")
		}
		filter.ManagerID = &id
	}
	if raw := c.QueryParam("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	filter.Limit = parseIntQuery(c, "limit", 50)
	filter.Offset = parseIntQuery(c, "offset", 0)

	users, err := h.userService.ListUsers(c.Request().Context(), actorFromContext(c), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, users)
}

// ChangeRole handles POST /users/:id/role
func (h *UserHandler) ChangeRole(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.ChangeRole(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// DeactivateUser handles DELETE /users/:id
func (h *UserHandler) DeactivateUser(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userService.DeactivateUser(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}
