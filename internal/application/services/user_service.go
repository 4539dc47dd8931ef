package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

// UserService implements the admin user operations. Users are deactivated,
// never deleted, so ownership history on tasks stays resolvable.
type UserService struct {
	store  ports.Store
	logger *logger.Logger
}

// NewUserService creates a new user service.
func NewUserService(store ports.Store, appLogger *logger.Logger) *UserService {
	return &UserService{store: store, logger: appLogger}
}

// CreateUser creates a user. Salespeople must report to a manager.
func (s *UserService) CreateUser(ctx context.Context, actor entities.Actor, req ports.CreateUserRequest) (*entities.User, error) {
	if err := requireRole(actor, entities.RoleAdmin); err != nil {
		return nil, err
	}

	if err := validateRoleManager(req.Role, req.ManagerID); err != nil {
		return nil, err
	}

	if existing, err := s.store.Users().GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, &entities.ConflictError{Message: fmt.Sprintf("email %s is already in use", req.Email)}
	} else if err != nil && !entities.IsNotFound(err) {
		return nil, err
	}

	if req.ManagerID != nil {
		manager, err := s.store.Users().GetByID(ctx, *req.ManagerID)
		if err != nil {
			return nil, err
		}
		if !manager.Role.AtLeast(entities.RoleManager) {
			return nil, entities.NewValidation("manager reference must hold the MANAGER role or above", "manager_id")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		ManagerID:    req.ManagerID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("user created", "user_id", user.ID, "role", user.Role, "actor_id", actor.ID)

	return user, nil
}

// GetUser retrieves a user. Non-leaders may only look up themselves.
func (s *UserService) GetUser(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.Role.AtLeast(entities.RoleTeamLeader) && actor.ID != id {
		return nil, &entities.ForbiddenError{Message: "salespeople may only view their own profile"}
	}
	return s.store.Users().GetByID(ctx, id)
}

// ListUsers returns users matching the filter.
func (s *UserService) ListUsers(ctx context.Context, actor entities.Actor, filter ports.UserFilter) ([]*entities.User, error) {
	if err := requireRole(actor, entities.RoleTeamLeader); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx, filter)
}

// ChangeRole mutates a user's role and manager reference together.
func (s *UserService) ChangeRole(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.ChangeRoleRequest) (*entities.User, error) {
	if err := requireRole(actor, entities.RoleAdmin); err != nil {
		return nil, err
	}

	if err := validateRoleManager(req.Role, req.ManagerID); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ManagerID != nil {
		manager, err := s.store.Users().GetByID(ctx, *req.ManagerID)
		if err != nil {
			return nil, err
		}
		if !manager.Role.AtLeast(entities.RoleManager) {
			return nil, entities.NewValidation("manager reference must hold the MANAGER role or above", "manager_id")
		}
	}

	user.Role = req.Role
	user.ManagerID = req.ManagerID
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("user role changed", "user_id", id, "role", req.Role, "actor_id", actor.ID)

	return user, nil
}

// DeactivateUser disables a user account.
func (s *UserService) DeactivateUser(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.User, error) {
	if err := requireRole(actor, entities.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsActive = false
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("user deactivated", "user_id", id, "actor_id", actor.ID)

	return user, nil
}

func validateRoleManager(role entities.Role, managerID *uuid.UUID) error {
	if !role.IsValid() {
		return entities.NewValidation(fmt.Sprintf("unknown role %q", role), "role")
	}
	if role == entities.RoleSalesperson && managerID == nil {
		return entities.NewValidation("salespeople must report to a manager", "manager_id")
	}
	return nil
}
