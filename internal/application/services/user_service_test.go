package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

func adminActor() entities.Actor {
	return entities.Actor{ID: uuid.New(), Role: entities.RoleAdmin}
}

func TestCreateUserHashesPassword(t *testing.T) {
	store := newFakeStore()
	manager := seedUser(store, entities.RoleManager, nil)
	svc := NewUserService(store, logger.NewNop())

	user, err := svc.CreateUser(context.Background(), adminActor(), ports.CreateUserRequest{
		Email:     "ayse@example.com",
		Name:      "Ayse",
		Password:  "correct-horse",
		Role:      entities.RoleSalesperson,
		ManagerID: &manager.ID,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.PasswordHash == "" || user.PasswordHash == "correct-horse" {
		t.Fatal("password stored without hashing")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if !user.IsActive {
		t.Error("new user should be active")
	}
}

func TestCreateUserValidation(t *testing.T) {
	store := newFakeStore()
	manager := seedUser(store, entities.RoleManager, nil)
	leader := seedUser(store, entities.RoleTeamLeader, nil)
	svc := NewUserService(store, logger.NewNop())
	ctx := context.Background()
	admin := adminActor()

	// Salespeople must report to a manager.
	_, err := svc.CreateUser(ctx, admin, ports.CreateUserRequest{
		Email: "a@example.com", Name: "A", Password: "password1", Role: entities.RoleSalesperson,
	})
	if !entities.IsValidation(err) {
		t.Errorf("want ValidationError without manager, got %v", err)
	}

	// The manager reference must actually be a manager.
	_, err = svc.CreateUser(ctx, admin, ports.CreateUserRequest{
		Email: "b@example.com", Name: "B", Password: "password1",
		Role: entities.RoleSalesperson, ManagerID: &leader.ID,
	})
	if !entities.IsValidation(err) {
		t.Errorf("want ValidationError for non-manager reference, got %v", err)
	}

	// Duplicate email conflicts.
	_, err = svc.CreateUser(ctx, admin, ports.CreateUserRequest{
		Email: manager.Email, Name: "C", Password: "password1", Role: entities.RoleTeamLeader,
	})
	if !entities.IsConflict(err) {
		t.Errorf("want ConflictError for duplicate email, got %v", err)
	}

	// Only admins create users.
	_, err = svc.CreateUser(ctx, entities.Actor{ID: uuid.New(), Role: entities.RoleManager},
		ports.CreateUserRequest{Email: "d@example.com", Name: "D", Password: "password1", Role: entities.RoleTeamLeader})
	if !entities.IsForbidden(err) {
		t.Errorf("want ForbiddenError for non-admin, got %v", err)
	}
}

func TestGetUserSelfScope(t *testing.T) {
	store := newFakeStore()
	manager := seedUser(store, entities.RoleManager, nil)
	me := seedUser(store, entities.RoleSalesperson, &manager.ID)
	other := seedUser(store, entities.RoleSalesperson, &manager.ID)
	svc := NewUserService(store, logger.NewNop())
	ctx := context.Background()

	if _, err := svc.GetUser(ctx, entities.Actor{ID: me.ID, Role: entities.RoleSalesperson}, me.ID); err != nil {
		t.Errorf("self lookup: %v", err)
	}

	_, err := svc.GetUser(ctx, entities.Actor{ID: me.ID, Role: entities.RoleSalesperson}, other.ID)
	if !entities.IsForbidden(err) {
		t.Errorf("want ForbiddenError for foreign lookup, got %v", err)
	}

	if _, err := svc.GetUser(ctx, leaderActor(), other.ID); err != nil {
		t.Errorf("team leader lookup: %v", err)
	}
}

func TestChangeRoleManagerRule(t *testing.T) {
	store := newFakeStore()
	manager := seedUser(store, entities.RoleManager, nil)
	leader := seedUser(store, entities.RoleTeamLeader, nil)
	svc := NewUserService(store, logger.NewNop())
	ctx := context.Background()
	admin := adminActor()

	// Demoting a leader to salesperson without a manager is rejected.
	_, err := svc.ChangeRole(ctx, admin, leader.ID, ports.ChangeRoleRequest{Role: entities.RoleSalesperson})
	if !entities.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	changed, err := svc.ChangeRole(ctx, admin, leader.ID, ports.ChangeRoleRequest{
		Role: entities.RoleSalesperson, ManagerID: &manager.ID,
	})
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if changed.Role != entities.RoleSalesperson || changed.ManagerID == nil || *changed.ManagerID != manager.ID {
		t.Error("role and manager not both updated")
	}
}

func TestDeactivateUser(t *testing.T) {
	store := newFakeStore()
	user := seedUser(store, entities.RoleTeamLeader, nil)
	svc := NewUserService(store, logger.NewNop())

	got, err := svc.DeactivateUser(context.Background(), adminActor(), user.ID)
	if err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if got.IsActive {
		t.Error("user still active")
	}
	if store.users[user.ID].IsActive {
		t.Error("deactivation not persisted")
	}
}
