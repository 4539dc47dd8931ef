package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

// TaskListService manages task list groupings. Lists are deactivated rather
// than deleted so existing tasks keep a valid parent.
type TaskListService struct {
	store  ports.Store
	logger *logger.Logger
}

// NewTaskListService creates a new task list service.
func NewTaskListService(store ports.Store, appLogger *logger.Logger) *TaskListService {
	return &TaskListService{store: store, logger: appLogger}
}

// CreateList creates a task list with a fixed tag.
func (s *TaskListService) CreateList(ctx context.Context, actor entities.Actor, req ports.CreateTaskListRequest) (*entities.TaskList, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	list := &entities.TaskList{
		ID:          uuid.New(),
		Name:        req.Name,
		Tag:         req.Tag,
		Description: req.Description,
		IsActive:    true,
		CreatedByID: actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.TaskLists().Create(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Infow("task list created", "list_id", list.ID, "tag", list.Tag, "actor_id", actor.ID)

	return list, nil
}

// GetList retrieves a task list by id.
func (s *TaskListService) GetList(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.TaskList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.TaskLists().GetByID(ctx, id)
}

// ListLists returns task lists, optionally filtered by tag or active flag.
func (s *TaskListService) ListLists(ctx context.Context, actor entities.Actor, filter ports.TaskListFilter) ([]*entities.TaskList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.TaskLists().List(ctx, filter)
}

// UpdateList patches a task list. Changing the tag is rejected while the
// list still has open tasks, since their type would no longer match.
func (s *TaskListService) UpdateList(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.UpdateTaskListRequest) (*entities.TaskList, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}

	var updated *entities.TaskList
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		list, err := tx.TaskLists().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Tag != nil && *req.Tag != list.Tag {
			open := entities.GeneralOpen
			_, total, err := tx.Tasks().List(ctx, ports.TaskFilter{
				TaskListID:    &id,
				GeneralStatus: &open,
				Limit:         1,
				Page:          1,
			})
			if err != nil {
				return err
			}
			if total > 0 {
				return entities.NewValidation(
					fmt.Sprintf("cannot change tag while %d open tasks remain in the list", total), "tag")
			}
			list.Tag = *req.Tag
		}

		if req.Name != nil {
			list.Name = *req.Name
		}
		if req.Description != nil {
			list.Description = req.Description
		}
		if req.IsActive != nil {
			list.IsActive = *req.IsActive
		}
		list.UpdatedAt = time.Now().UTC()

		if err := tx.TaskLists().Update(ctx, list); err != nil {
			return err
		}
		updated = list
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task list updated", "list_id", id, "actor_id", actor.ID)

	return updated, nil
}
