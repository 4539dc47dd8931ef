package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salesflow/core/internal/application/services"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

// TaskHandler exposes the task workflow operations. Error translation to
// status codes happens in the server's error handler; handlers return the
// service errors as-is.
type TaskHandler struct {
	taskService     *services.TaskService
	activityService *services.ActivityService
	logger          *logger.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService *services.TaskService, activityService *services.ActivityService, appLogger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:     taskService,
		activityService: activityService,
		logger:          appLogger,
	}
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// ListTasks handles GET /tasks
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := parseTaskFilter(c)
	if err != nil {
		return err
	}

	page, err := h.taskService.ListTasks(c.Request().Context(), actorFromContext(c), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// SearchTasks handles GET /tasks/search
func (h *TaskHandler) SearchTasks(c echo.Context) error {
	query := c.QueryParam("q")
	limit := parseIntQuery(c, "limit", 10)

	hits, err := h.taskService.SearchTasks(c.Request().Context(), actorFromContext(c), query, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, hits)
}

// GetTask handles GET /tasks/:id
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.taskService.GetTask(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, detail)
}

// UpdateTask handles PATCH /tasks/:id
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// AssignTask handles POST /tasks/:id/assign
func (h *TaskHandler) AssignTask(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.AssignTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.AssignTask(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// SetStatus handles POST /tasks/:id/status
func (h *TaskHandler) SetStatus(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.SetStatus(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// AddActivity handles POST /tasks/:id/activities
func (h *TaskHandler) AddActivity(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.ActivityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	log, err := h.activityService.AddActivity(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, log)
}

// DeleteActivity handles DELETE /tasks/:id/activities/:logId
func (h *TaskHandler) DeleteActivity(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	logID, err := parseUUIDParam(c, "logId")
	if err != nil {
		return err
	}

	if err := h.activityService.DeleteActivity(c.Request().Context(), actorFromContext(c), id, logID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Activity deleted"})
}

// ListContacts handles GET /tasks/:id/contacts
func (h *TaskHandler) ListContacts(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	contacts, err := h.taskService.ListContacts(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, contacts)
}

// AddContact handles POST /tasks/:id/contacts
func (h *TaskHandler) AddContact(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.AddTaskContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact, err := h.taskService.AddContact(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, contact)
}

// UpdateContact handles PATCH /tasks/:id/contacts/:contactId
func (h *TaskHandler) UpdateContact(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	contactID, err := parseUUIDParam(c, "contactId")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	contact, err := h.taskService.UpdateContact(c.Request().Context(), actorFromContext(c), id, contactID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, contact)
}

// RemoveContact handles DELETE /tasks/:id/contacts/:contactId
func (h *TaskHandler) RemoveContact(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	contactID, err := parseUUIDParam(c, "contactId")
	if err != nil {
		return err
	}

	if err := h.taskService.RemoveContact(c.Request().Context(), actorFromContext(c), id, contactID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Contact removed"})
}
