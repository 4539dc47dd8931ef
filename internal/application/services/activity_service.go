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

// ActivityService interprets activity reason codes into derived offer state.
// Logging never touches the task's status fields; those change only through
// TaskService.SetStatus.
type ActivityService struct {
	store  ports.Store
	audit  ports.AuditService
	logger *logger.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(store ports.Store, audit ports.AuditService, appLogger *logger.Logger) *ActivityService {
	return &ActivityService{
		store:  store,
		audit:  audit,
		logger: appLogger,
	}
}

// AddActivity appends an activity log to the task and applies the reason's
// side effect. The log insert and any derived offer mutation commit together
// or not at all.
func (s *ActivityService) AddActivity(ctx context.Context, actor entities.Actor, taskID uuid.UUID, req ports.ActivityRequest) (*entities.ActivityLog, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	rule, ok := reasonRules[req.Reason]
	if !ok {
		return nil, entities.NewValidation(fmt.Sprintf("unknown reason %q", req.Reason), "reason")
	}
	if rule.validate != nil {
		if err := rule.validate(req); err != nil {
			return nil, err
		}
	}

	var created *entities.ActivityLog
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		task, err := tx.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if err := requireTaskAccess(actor, task); err != nil {
			return err
		}

		log := &entities.ActivityLog{
			ID:           uuid.New(),
			TaskID:       task.ID,
			AuthorID:     actor.ID,
			Reason:       req.Reason,
			FollowUpDate: req.FollowUpDate,
			Text:         req.Text,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.Activities().Create(ctx, log); err != nil {
			return err
		}

		if rule.apply != nil {
			if err := rule.apply(ctx, tx, log, req); err != nil {
				return err
			}
		}

		created = log
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("activity logged",
		"task_id", taskID, "log_id", created.ID, "reason", created.Reason, "author_id", actor.ID)

	s.recordAudit(ctx, taskID, "ACTIVITY_ADD", actor, nil, created)

	return created, nil
}

// DeleteActivity removes a log and, atomically, any offer it spawned. A
// salesperson may only delete their own entries; team leaders and above may
// delete any.
func (s *ActivityService) DeleteActivity(ctx context.Context, actor entities.Actor, taskID, logID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		log, err := tx.Activities().GetByID(ctx, logID)
		if err != nil {
			return err
		}
		if log.TaskID != taskID {
			return entities.NewNotFound("activity log", logID.String())
		}

		if !actor.Role.AtLeast(entities.RoleTeamLeader) && log.AuthorID != actor.ID {
			return &entities.ForbiddenError{Message: "salespeople may only delete their own activity entries"}
		}

		if err := tx.Offers().DeleteByActivityLog(ctx, logID); err != nil {
			return err
		}
		return tx.Activities().Delete(ctx, logID)
	})
	if err != nil {
		return err
	}

	s.logger.Infow("activity deleted", "task_id", taskID, "log_id", logID, "actor_id", actor.ID)

	s.recordAudit(ctx, taskID, "ACTIVITY_DELETE", actor, logID, nil)

	return nil
}

func (s *ActivityService) recordAudit(ctx context.Context, taskID uuid.UUID, action string, actor entities.Actor, previous, next interface{}) {
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
