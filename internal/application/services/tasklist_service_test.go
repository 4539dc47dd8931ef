package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

func TestCreateListDefaults(t *testing.T) {
	store := newFakeStore()
	svc := NewTaskListService(store, logger.NewNop())

	list, err := svc.CreateList(context.Background(), leaderActor(), ports.CreateTaskListRequest{
		Name: "Istanbul Q3",
		Tag:  entities.TagGeneral,
	})
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if !list.IsActive {
		t.Error("new list should be active")
	}

	_, err = svc.CreateList(context.Background(),
		entities.Actor{ID: uuid.New(), Role: entities.RoleSalesperson},
		ports.CreateTaskListRequest{Name: "x", Tag: entities.TagGeneral})
	if !entities.IsForbidden(err) {
		t.Errorf("want ForbiddenError for salesperson, got %v", err)
	}
}

func TestUpdateListTagChangeGuard(t *testing.T) {
	store := newFakeStore()
	list := seedList(store, entities.TagGeneral)
	task := seedTask(store, list.ID, uuid.New(), entities.TaskTypeGeneral, nil)
	svc := NewTaskListService(store, logger.NewNop())
	ctx := context.Background()
	actor := leaderActor()

	projectTag := entities.TagProject
	_, err := svc.UpdateList(ctx, actor, list.ID, ports.UpdateTaskListRequest{Tag: &projectTag})
	if !entities.IsValidation(err) {
		t.Fatalf("want ValidationError while open tasks remain, got %v", err)
	}
	if store.lists[list.ID].Tag != entities.TagGeneral {
		t.Error("rejected tag change must not persist")
	}

	// Once the task is closed the tag may change.
	store.tasks[task.ID].Close(time.Now().UTC(), nil)
	updated, err := svc.UpdateList(ctx, actor, list.ID, ports.UpdateTaskListRequest{Tag: &projectTag})
	if err != nil {
		t.Fatalf("UpdateList after close: %v", err)
	}
	if updated.Tag != entities.TagProject {
		t.Error("tag not updated")
	}
}

func TestUpdateListPatchFields(t *testing.T) {
	store := newFakeStore()
	list := seedList(store, entities.TagGeneral)
	svc := NewTaskListService(store, logger.NewNop())

	name := "Renamed"
	inactive := false
	updated, err := svc.UpdateList(context.Background(), leaderActor(), list.ID,
		ports.UpdateTaskListRequest{Name: &name, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateList: %v", err)
	}
	if updated.Name != "Renamed" || updated.IsActive {
		t.Error("patch not applied")
	}
}
