package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salesflow/core/internal/application/services"
	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

// TaskListHandler exposes task list management.
type TaskListHandler struct {
	taskListService *services.TaskListService
	logger          *logger.Logger
}

// NewTaskListHandler creates a new task list handler.
func NewTaskListHandler(taskListService *services.TaskListService, appLogger *logger.Logger) *TaskListHandler {
	return &TaskListHandler{taskListService: taskListService, logger: appLogger}
}

// CreateList handles POST /task-lists
func (h *TaskListHandler) CreateList(c echo.Context) error {
	var req ports.CreateTaskListRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	list, err := h.taskListService.CreateList(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, list)
}

// ListLists handles GET /task-lists
func (h *TaskListHandler) ListLists(c echo.Context) error {
	var filter ports.TaskListFilter
	if raw := c.QueryParam("tag"); raw != "" {
		tag := entities.TaskListTag(raw)
		if !tag.IsValid() {
			return entities.NewValidation("invalid tag filter", "tag")
		}
		filter.Tag = &tag
	}
	if raw := c.QueryParam("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	lists, err := h.taskListService.ListLists(c.Request().Context(), actorFromContext(c), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, lists)
}

// GetList handles GET /task-lists/:id
func (h *TaskListHandler) GetList(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	list, err := h.taskListService.GetList(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}

// UpdateList handles PATCH /task-lists/:id
func (h *TaskListHandler) UpdateList(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskListRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	list, err := h.taskListService.UpdateList(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}
