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

// TaskService implements task creation, assignment, status transitions and
// the role-scoped read surface. Every mutation that can touch the open
// GENERAL-per-account invariant runs inside one store transaction.
type TaskService struct {
	store    ports.Store
	notifier *NotificationService
	audit    ports.AuditService
	logger   *logger.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(store ports.Store, notifier *NotificationService, audit ports.AuditService, appLogger *logger.Logger) *TaskService {
	return &TaskService{
		store:    store,
		notifier: notifier,
		audit:    audit,
		logger:   appLogger,
	}
}

// CreateTask creates a task in its list, optionally assigned at birth.
// Assignment and due dates are set only when an owner is supplied here.
func (s *TaskService) CreateTask(ctx context.Context, actor entities.Actor, req ports.CreateTaskRequest) (*entities.Task, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}

	status := entities.StatusNotHot
	if req.Status != nil {
		status = *req.Status
	}

	var created *entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		list, err := tx.TaskLists().GetByID(ctx, req.TaskListID)
		if err != nil {
			return err
		}
		if !list.IsActive {
			return entities.NewValidation("task list is deactivated", "task_list_id")
		}
		if !req.Type.MatchesTag(list.Tag) {
			return entities.NewValidation(
				fmt.Sprintf("task type %s does not match list tag %s", req.Type, list.Tag), "type")
		}

		if req.OwnerID != nil {
			owner, err := tx.Users().GetByID(ctx, *req.OwnerID)
			if err != nil {
				return err
			}
			if owner.Role != entities.RoleSalesperson {
				return entities.NewValidation("task owner must be a salesperson", "owner_id")
			}
			if !owner.IsActive {
				return entities.NewValidation("task owner is deactivated", "owner_id")
			}
			if req.DurationDays == nil {
				return entities.NewValidation("duration is required when assigning at creation", "duration_days")
			}
		}

		if req.Type == entities.TaskTypeGeneral {
			existing, err := tx.Tasks().FindOpenGeneral(ctx, req.AccountID, uuid.Nil)
			if err != nil {
				return err
			}
			if existing != nil {
				return &entities.ConflictError{
					Message:        "account already has an open general task",
					ExistingTaskID: existing.ID,
				}
			}
		}

		now := time.Now().UTC()
		task := &entities.Task{
			ID:            uuid.New(),
			TaskListID:    req.TaskListID,
			AccountID:     req.AccountID,
			CreatedByID:   actor.ID,
			Category:      req.Category,
			Type:          req.Type,
			Priority:      req.Priority,
			AccountType:   req.AccountType,
			Source:        req.Source,
			MainCategory:  req.MainCategory,
			SubCategory:   req.SubCategory,
			Contact:       req.Contact,
			City:          req.City,
			District:      req.District,
			Details:       req.Details,
			CreationDate:  now,
			Status:        status,
			GeneralStatus: entities.GeneralOpen,
		}
		if req.OwnerID != nil {
			task.Assign(*req.OwnerID, *req.DurationDays, now)
		}

		if err := tx.Tasks().Create(ctx, task); err != nil {
			return err
		}

		summary := fmt.Sprintf("Task opened (%s / %s)", task.Category, task.Type)
		if err := tx.Accounts().AppendHistory(ctx, task.AccountID, entities.HistoryTaskOpen, summary); err != nil {
			return err
		}

		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task created", "task_id", created.ID, "account_id", created.AccountID,
		"type", created.Type, "created_by", actor.ID)

	if created.OwnerID != nil {
		s.notifyAssigned(ctx, created)
	}
	s.recordAudit(ctx, created.ID, "CREATE", actor, nil, created)

	return created, nil
}

// GetTask returns the task together with its recent activity and offers.
func (s *TaskService) GetTask(ctx context.Context, actor entities.Actor, id uuid.UUID) (*ports.TaskDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	task, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireTaskAccess(actor, task); err != nil {
		return nil, err
	}

	logs, err := s.store.Activities().ListByTask(ctx, id, 100)
	if err != nil {
		return nil, err
	}
	offers, err := s.store.Offers().ListByTask(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ports.TaskDetail{Task: task, Logs: logs, Offers: offers}, nil
}

// ListTasks returns a page of tasks visible to the actor. Visibility is
// narrowed in the query itself so totals stay correct under pagination.
func (s *TaskService) ListTasks(ctx context.Context, actor entities.Actor, filter ports.TaskFilter) (*ports.TaskPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	applyScope(actor, &filter)

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	items, total, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &ports.TaskPage{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// applyScope narrows the filter to what the actor's role may see. A manager
// explicitly querying unassigned tasks sees the full unassigned pool.
func applyScope(actor entities.Actor, filter *ports.TaskFilter) {
	switch actor.Role {
	case entities.RoleSalesperson:
		id := actor.ID
		filter.ScopeOwnerID = &id
	case entities.RoleManager:
		if !filter.Unassigned {
			id := actor.ID
			filter.ScopeManagerID = &id
		}
	}
}

// SearchTasks is a typeahead lookup returning id/label pairs.
func (s *TaskService) SearchTasks(ctx context.Context, actor entities.Actor, query string, limit int) ([]ports.TaskSearchHit, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 25 {
		limit = 10
	}

	hits, err := s.store.Tasks().Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	return hits, nil
}

// UpdateTask applies a profile patch. A type change is re-validated against
// the list tag and, for an open task becoming GENERAL, against the account
// uniqueness rule with the task itself excluded.
func (s *TaskService) UpdateTask(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}

	var updated *entities.Task
	var previous entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		task, err := tx.Tasks().GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous = *task

		if req.Type != nil && *req.Type != task.Type {
			list, err := tx.TaskLists().GetByID(ctx, task.TaskListID)
			if err != nil {
				return err
			}
			if !req.Type.MatchesTag(list.Tag) {
				return entities.NewValidation(
					fmt.Sprintf("task type %s does not match list tag %s", *req.Type, list.Tag), "type")
			}
			if *req.Type == entities.TaskTypeGeneral && task.IsOpen() {
				existing, err := tx.Tasks().FindOpenGeneral(ctx, task.AccountID, task.ID)
				if err != nil {
					return err
				}
				if existing != nil {
					return &entities.ConflictError{
						Message:        "account already has an open general task",
						ExistingTaskID: existing.ID,
					}
				}
			}
			task.Type = *req.Type
		}

		if req.Category != nil {
			task.Category = *req.Category
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		if req.AccountType != nil {
			task.AccountType = *req.AccountType
		}
		if req.Source != nil {
			task.Source = *req.Source
		}
		if req.MainCategory != nil {
			task.MainCategory = *req.MainCategory
		}
		if req.SubCategory != nil {
			task.SubCategory = *req.SubCategory
		}
		if req.Contact != nil {
			task.Contact = req.Contact
		}
		if req.City != nil {
			task.City = req.City
		}
		if req.District != nil {
			task.District = req.District
		}
		if req.Details != nil {
			task.Details = *req.Details
		}

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}

		if err := tx.Accounts().AppendHistory(ctx, task.AccountID,
			entities.HistoryProfileUpdate, "Task profile updated"); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task updated", "task_id", id, "actor_id", actor.ID)
	s.recordAudit(ctx, id, "UPDATE", actor, &previous, updated)

	return updated, nil
}

// AssignTask hands the task to a salesperson and restarts the assignment
// window. Reassigning an already-assigned task is allowed and overwrites the
// prior window.
func (s *TaskService) AssignTask(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.AssignTaskRequest) (*entities.Task, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}

	var updated *entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		task, err := tx.Tasks().GetByID(ctx, id)
		if err != nil {
			return err
		}

		owner, err := tx.Users().GetByID(ctx, req.OwnerID)
		if err != nil {
			return err
		}
		if owner.Role != entities.RoleSalesperson {
			return entities.NewValidation("task owner must be a salesperson", "owner_id")
		}
		if !owner.IsActive {
			return entities.NewValidation("task owner is deactivated", "owner_id")
		}

		task.Assign(req.OwnerID, req.DurationDays, time.Now().UTC())
		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}

		summary := fmt.Sprintf("Task assigned to %s", owner.Name)
		if err := tx.Accounts().AppendHistory(ctx, task.AccountID,
			entities.HistoryProfileUpdate, summary); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task assigned", "task_id", id, "owner_id", req.OwnerID,
		"duration_days", req.DurationDays, "actor_id", actor.ID)

	s.notifyAssigned(ctx, updated)
	s.recordAudit(ctx, id, "ASSIGN", actor, nil, updated)

	return updated, nil
}

// SetStatus declares the task's sales status and optionally closes it.
// Manual close is only valid from DEAL or COLD.
func (s *TaskService) SetStatus(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.SetStatusRequest) (*entities.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var updated *entities.Task
	var previous entities.Task
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		task, err := tx.Tasks().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := requireTaskAccess(actor, task); err != nil {
			return err
		}
		if !task.IsOpen() {
			return entities.NewValidation("task is already closed", "general_status")
		}
		previous = *task

		task.Status = req.Status
		if req.Close {
			if !req.Status.Closable() {
				return entities.NewValidation("only DEAL or COLD tasks may be closed", "status")
			}
			task.Close(time.Now().UTC(), req.ClosedReason)
		}

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}

		if req.Close {
			summary := fmt.Sprintf("Task closed as %s", task.Status)
			if err := tx.Accounts().AppendHistory(ctx, task.AccountID,
				entities.HistoryTaskClose, summary); err != nil {
				return err
			}
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("task status set", "task_id", id, "status", updated.Status,
		"closed", req.Close, "actor_id", actor.ID)

	if req.Close && updated.OwnerID != nil {
		s.notify(ctx, *updated.OwnerID, updated.ID, fmt.Sprintf("Task closed as %s", updated.Status))
	}
	s.recordAudit(ctx, id, "SET_STATUS", actor, &previous, updated)

	return updated, nil
}

// ListContacts returns the task's contact links, primary first.
func (s *TaskService) ListContacts(ctx context.Context, actor entities.Actor, taskID uuid.UUID) ([]*entities.TaskContact, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.Tasks().GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.TaskContacts().ListByTask(ctx, taskID)
}

// AddContact links a contact to the task. Making the link primary demotes
// any existing primary link in the same transaction.
func (s *TaskService) AddContact(ctx context.Context, actor entities.Actor, taskID uuid.UUID, req ports.AddTaskContactRequest) (*entities.TaskContact, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}

	tc := &entities.TaskContact{
		ID:        uuid.New(),
		TaskID:    taskID,
		ContactID: req.ContactID,
		IsPrimary: req.IsPrimary,
		CreatedAt: time.Now().UTC(),
	}

	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		if _, err := tx.Tasks().GetByID(ctx, taskID); err != nil {
			return err
		}
		if req.IsPrimary {
			if err := tx.TaskContacts().ClearPrimary(ctx, taskID); err != nil {
				return err
			}
		}
		return tx.TaskContacts().Create(ctx, tc)
	})
	if err != nil {
		return nil, err
	}

	return tc, nil
}

// UpdateContact updates a contact link's primary flag.
func (s *TaskService) UpdateContact(ctx context.Context, actor entities.Actor, taskID, contactLinkID uuid.UUID, req ports.UpdateTaskContactRequest) (*entities.TaskContact, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}

	var updated *entities.TaskContact
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		tc, err := tx.TaskContacts().GetByID(ctx, contactLinkID)
		if err != nil {
			return err
		}
		if tc.TaskID != taskID {
			return entities.NewNotFound("task contact", contactLinkID.String())
		}

		if req.IsPrimary != nil {
			if *req.IsPrimary && !tc.IsPrimary {
				if err := tx.TaskContacts().ClearPrimary(ctx, taskID); err != nil {
					return err
				}
			}
			tc.IsPrimary = *req.IsPrimary
		}

		if err := tx.TaskContacts().Update(ctx, tc); err != nil {
			return err
		}
		updated = tc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// RemoveContact deletes a contact link.
func (s *TaskService) RemoveContact(ctx context.Context, actor entities.Actor, taskID, contactLinkID uuid.UUID) error {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return err
	}

	tc, err := s.store.TaskContacts().GetByID(ctx, contactLinkID)
	if err != nil {
		return err
	}
	if tc.TaskID != taskID {
		return entities.NewNotFound("task contact", contactLinkID.String())
	}

	return s.store.TaskContacts().Delete(ctx, contactLinkID)
}

func (s *TaskService) notifyAssigned(ctx context.Context, task *entities.Task) {
	if task.OwnerID == nil {
		return
	}
	msg := "Task assigned to you"
	if task.DueDate != nil {
		msg = fmt.Sprintf("Task assigned to you (due %s)", task.DueDate.Format("2006-01-02"))
	}
	s.notify(ctx, *task.OwnerID, task.ID, msg)
}

// notify delivers a best-effort notification. Failures are logged and never
// surface into the operation that triggered them.
func (s *TaskService) notify(ctx context.Context, toUserID, taskID uuid.UUID, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, toUserID, taskID, message); err != nil {
		s.logger.Warnw("notification failed", "user_id", toUserID, "task_id", taskID, "error", err)
	}
}

func (s *TaskService) recordAudit(ctx context.Context, taskID uuid.UUID, action string, actor entities.Actor, previous, next interface{}) {
	if s.audit == nil {
		return
	}
	entry := ports.AuditEntry{
		EntityType: "TASK",
		EntityID:   taskID,
		Action:     action,
		ActorID:    actor.ID,
		Previous:   previous,
		Next:       next,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warnw("audit record failed", "action", action, "task_id", taskID, "error", err)
	}
}
