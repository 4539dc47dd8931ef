package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
)

func TestNotifyPersistsAndStreams(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, 4, logger.NewNop())
	userID := uuid.New()
	taskID := uuid.New()

	ch, cancel := svc.Subscribe(userID)
	defer cancel()

	if err := svc.Notify(context.Background(), userID, taskID, "Task assigned to you"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case n := <-ch:
		if n.ToUserID != userID || n.TaskID != taskID || n.Message != "Task assigned to you" {
			t.Errorf("unexpected notification %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("no live delivery")
	}

	inbox, err := store.Notifications().ListForUser(context.Background(), userID, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("inbox size = %d, want 1", len(inbox))
	}
	if inbox[0].IsRead() {
		t.Error("new notification must be unread")
	}
}

func TestNotifyWithoutSubscriberStillPersists(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, 4, logger.NewNop())
	userID := uuid.New()

	if err := svc.Notify(context.Background(), userID, uuid.New(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	inbox, _ := store.Notifications().ListForUser(context.Background(), userID, 10)
	if len(inbox) != 1 {
		t.Errorf("inbox size = %d, want 1", len(inbox))
	}
}

func TestNotifyFullChannelDropsLiveCopy(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, 1, logger.NewNop())
	userID := uuid.New()
	ctx := context.Background()

	_, cancel := svc.Subscribe(userID)
	defer cancel()

	// Nobody is draining; the second publish overflows the buffer but the
	// durable inbox still receives both.
	for i := 0; i < 2; i++ {
		if err := svc.Notify(ctx, userID, uuid.New(), "ping"); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	inbox, _ := store.Notifications().ListForUser(ctx, userID, 10)
	if len(inbox) != 2 {
		t.Errorf("inbox size = %d, want 2", len(inbox))
	}
}

func TestSubscribeLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, 4, logger.NewNop())
	userID := uuid.New()

	ch1, cancel1 := svc.Subscribe(userID)
	ch2, cancel2 := svc.Subscribe(userID)
	if ch1 != ch2 {
		t.Fatal("subscribers of one user must share a channel")
	}

	cancel1()
	// Channel survives while the second subscriber remains.
	if err := svc.Notify(context.Background(), userID, uuid.New(), "still here"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	select {
	case _, ok := <-ch2:
		if !ok {
			t.Fatal("channel closed while a subscriber remained")
		}
	case <-time.After(time.Second):
		t.Fatal("no delivery to remaining subscriber")
	}

	cancel2()
	if _, ok := <-ch2; ok {
		t.Error("channel should be closed after the last cancel")
	}

	// cancel is idempotent.
	cancel1()
	cancel2()
}

func TestMarkReadOwnership(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, 4, logger.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	if err := svc.Notify(ctx, owner, uuid.New(), "yours"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	inbox, _ := store.Notifications().ListForUser(ctx, owner, 10)
	id := inbox[0].ID

	// Someone else cannot mark it.
	_, err := svc.MarkRead(ctx, entities.Actor{ID: uuid.New(), Role: entities.RoleSalesperson}, id)
	if !entities.IsNotFound(err) {
		t.Fatalf("want NotFoundError for foreign notification, got %v", err)
	}

	n, err := svc.MarkRead(ctx, entities.Actor{ID: owner, Role: entities.RoleSalesperson}, id)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !n.IsRead() {
		t.Error("notification not marked read")
	}
}

func TestListInboxRequiresActor(t *testing.T) {
	store := newFakeStore()
	svc := NewNotificationService(store, 4, logger.NewNop())

	if _, err := svc.ListInbox(context.Background(), entities.Actor{}, 10); err == nil {
		t.Error("want error for missing actor")
	}
}
