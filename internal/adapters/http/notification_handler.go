package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salesflow/core/internal/application/services"
	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
)

// NotificationHandler exposes the per-user inbox and the live SSE stream.
type NotificationHandler struct {
	notificationService *services.NotificationService
	heartbeat           time.Duration
	logger              *logger.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notificationService *services.NotificationService, heartbeat time.Duration, appLogger *logger.Logger) *NotificationHandler {
	if heartbeat <= 0 {
		heartbeat = 20 * time.Second
	}
	return &NotificationHandler{
		notificationService: notificationService,
		heartbeat:           heartbeat,
		logger:              appLogger,
	}
}

// ListInbox handles GET /notifications
func (h *NotificationHandler) ListInbox(c echo.Context) error {
	limit := parseIntQuery(c, "limit", 50)

	items, err := h.notificationService.ListInbox(c.Request().Context(), actorFromContext(c), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	n, err := h.notificationService.MarkRead(c.Request().Context(), actorFromContext(c), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, n)
}

// Stream handles GET /notifications/stream as server-sent events. The live
// stream is best-effort; clients reconcile missed messages from the inbox on
// reconnect.
func (h *NotificationHandler) Stream(c echo.Context) error {
	actor := actorFromContext(c)
	if actor.ID == uuid.Nil {
		return entities.ErrUnauthorized
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ch, cancel := h.notificationService.Subscribe(actor.ID)
	defer cancel()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(n)
			if err != nil {
				h.logger.Warnw("failed to encode notification event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
				return nil
			}
			resp.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(resp, ": keepalive\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
