package http

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/ports"
)

// ActorKey is the echo context key under which the auth middleware stores
// the resolved actor.
const ActorKey = "actor"

// SetActor stores the resolved actor on the request context.
func SetActor(c echo.Context, actor entities.Actor) {
	c.Set(ActorKey, actor)
}

// actorFromContext returns the resolved actor, or the zero Actor when the
// request carried no valid token. Services reject the zero Actor.
func actorFromContext(c echo.Context) entities.Actor {
	actor, _ := c.Get(ActorKey).(entities.Actor)
	return actor
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, entities.NewValidation("invalid "+name+" parameter", name)
	}
	return id, nil
}

func parseIntQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// parseTaskFilter builds a task filter from list query parameters. Scope
// predicates are left empty; the service fills those from the actor's role.
func parseTaskFilter(c echo.Context) (ports.TaskFilter, error) {
	var filter ports.TaskFilter

	if raw := c.QueryParam("task_list_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, entities.NewValidation("invalid task_list_id filter", "task_list_id")
		}
		filter.TaskListID = &id
	}
	if raw := c.QueryParam("owner_id"); raw != "" {
		if raw == "none" {
			filter.Unassigned = true
		} else {
			id, err := uuid.Parse(raw)
			if err != nil {
				return filter, entities.NewValidation("invalid owner_id filter", "owner_id")
			}
			filter.OwnerID = &id
		}
	}
	for _, raw := range c.QueryParams()["status"] {
		status := entities.TaskStatus(raw)
		if !status.IsValid() {
			return filter, entities.NewValidation("invalid status filter", "status")
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if raw := c.QueryParam("general_status"); raw != "" {
		gs := entities.GeneralStatus(raw)
		if gs != entities.GeneralOpen && gs != entities.GeneralClosed {
			return filter, entities.NewValidation("invalid general_status filter", "general_status")
		}
		filter.GeneralStatus = &gs
	}
	if raw := c.QueryParam("priority"); raw != "" {
		p := entities.Priority(raw)
		if !p.IsValid() {
			return filter, entities.NewValidation("invalid priority filter", "priority")
		}
		filter.Priority = &p
	}
	if raw := c.QueryParam("category"); raw != "" {
		cat := entities.TaskCategory(raw)
		if !cat.IsValid() {
			return filter, entities.NewValidation("invalid category filter", "category")
		}
		filter.Category = &cat
	}
	if raw := c.QueryParam("account_type"); raw != "" {
		at := entities.AccountType(raw)
		if !at.IsValid() {
			return filter, entities.NewValidation("invalid account_type filter", "account_type")
		}
		filter.AccountType = &at
	}
	if raw := c.QueryParam("source"); raw != "" {
		src := entities.TaskSource(raw)
		if !src.IsValid() {
			return filter, entities.NewValidation("invalid source filter", "source")
		}
		filter.Source = &src
	}
	if raw := c.QueryParam("main_category"); raw != "" {
		filter.MainCategory = &raw
	}
	if raw := c.QueryParam("sub_category"); raw != "" {
		filter.SubCategory = &raw
	}
	if raw := c.QueryParam("city"); raw != "" {
		filter.City = &raw
	}
	if raw := c.QueryParam("district"); raw != "" {
		filter.District = &raw
	}
	if raw := c.QueryParam("q"); raw != "" {
		filter.Query = &raw
	}
	if raw := c.QueryParam("created_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, entities.NewValidation("invalid created_from filter", "created_from")
		}
		filter.CreatedFrom = &t
	}
	if raw := c.QueryParam("created_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, entities.NewValidation("invalid created_to filter", "created_to")
		}
		filter.CreatedTo = &t
	}

	filter.Page = parseIntQuery(c, "page", 1)
	filter.Limit = parseIntQuery(c, "limit", 50)

	return filter, nil
}

// Response helper types

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
