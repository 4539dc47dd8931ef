package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
)

// requireActor rejects operations invoked without a resolved actor context.
func requireActor(actor entities.Actor) error {
	if actor.ID == uuid.Nil || !actor.Role.IsValid() {
		return entities.ErrUnauthorized
	}
	return nil
}

// requireRole enforces the minimum role for an operation.
func requireRole(actor entities.Actor, minimum entities.Role) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Role.AtLeast(minimum) {
		return &entities.ForbiddenError{Message: fmt.Sprintf("operation requires %s role or above", minimum)}
	}
	return nil
}

// requireTaskAccess enforces the ownership rule: a salesperson may only act
// on tasks they own, any higher role may act on any task.
func requireTaskAccess(actor entities.Actor, task *entities.Task) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role == entities.RoleSalesperson && !task.IsOwnedBy(actor.ID) {
		return &entities.ForbiddenError{Message: "salespeople may only act on their own tasks"}
	}
	return nil
}
