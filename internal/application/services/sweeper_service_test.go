package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
)

func newSweeper(s *fakeStore) *SweeperService {
	notifier := NewNotificationService(s, 4, logger.NewNop())
	return NewSweeperService(s, notifier, time.Minute, 100, logger.NewNop())
}

func makeOverdue(store *fakeStore, task *entities.Task) {
	past := time.Now().UTC().Add(-48 * time.Hour)
	assigned := past.Add(-5 * 24 * time.Hour)
	task.AssignmentDate = &assigned
	task.DueDate = &past
}

func TestSweeperClosesOverdueTasks(t *testing.T) {
	store := newFakeStore()
	list := seedList(store, entities.TagGeneral)
	owner := seedUser(store, entities.RoleSalesperson, nil)

	overdue := seedTask(store, list.ID, uuid.New(), entities.TaskTypeGeneral, &owner.ID)
	makeOverdue(store, overdue)

	// A task still inside its window stays untouched.
	current := seedTask(store, list.ID, uuid.New(), entities.TaskTypeGeneral, &owner.ID)
	future := time.Now().UTC().Add(72 * time.Hour)
	current.DueDate = &future

	// An unassigned task has no due date and is never swept.
	unassigned := seedTask(store, list.ID, uuid.New(), entities.TaskTypeGeneral, nil)

	sweeper := newSweeper(store)
	closed, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed = %d, want 1", closed)
	}

	got := store.tasks[overdue.ID]
	if got.IsOpen() {
		t.Error("overdue task still open")
	}
	if got.ClosedReason == nil || *got.ClosedReason != "OVERDUE" {
		t.Error("closed reason not recorded")
	}
	if !store.tasks[current.ID].IsOpen() || !store.tasks[unassigned.ID].IsOpen() {
		t.Error("non-overdue task was closed")
	}

	history := store.historyFor(overdue.AccountID)
	if len(history) != 1 || history[0].typ != entities.HistoryDueDatePassed {
		t.Errorf("want one DUE_DATE_PASSED history entry, got %v", history)
	}

	inbox, _ := store.Notifications().ListForUser(context.Background(), owner.ID, 10)
	if len(inbox) != 1 {
		t.Errorf("want 1 auto-close notification, got %d", len(inbox))
	}
}

func TestSweeperSecondRunIsNoOp(t *testing.T) {
	store := newFakeStore()
	list := seedList(store, entities.TagGeneral)
	owner := seedUser(store, entities.RoleSalesperson, nil)
	overdue := seedTask(store, list.ID, uuid.New(), entities.TaskTypeGeneral, &owner.ID)
	makeOverdue(store, overdue)

	sweeper := newSweeper(store)
	ctx := context.Background()

	if closed, err := sweeper.RunOnce(ctx); err != nil || closed != 1 {
		t.Fatalf("first run closed = %d, err = %v", closed, err)
	}
	if closed, err := sweeper.RunOnce(ctx); err != nil || closed != 0 {
		t.Fatalf("second run closed = %d, err = %v", closed, err)
	}

	if got := len(store.historyFor(overdue.AccountID)); got != 1 {
		t.Errorf("history entries = %d, want 1", got)
	}
	inbox, _ := store.Notifications().ListForUser(ctx, owner.ID, 10)
	if len(inbox) != 1 {
		t.Errorf("notifications = %d, want 1", len(inbox))
	}
}

func TestSweeperStartStop(t *testing.T) {
	store := newFakeStore()
	sweeper := NewSweeperService(store, NewNotificationService(store, 4, logger.NewNop()),
		10*time.Millisecond, 100, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()

	// Stop is idempotent.
	sweeper.Stop()
}
