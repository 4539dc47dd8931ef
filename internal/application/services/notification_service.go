package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

const defaultInboxLimit = 50

// streamEntry is one user's live channel plus its subscriber count. The
// channel exists only while at least one subscriber is attached; publishes
// to a user with no entry are dropped.
type streamEntry struct {
	ch   chan *entities.Notification
	refs int
}

// NotificationService owns the durable inbox and the per-user live stream
// registry. Live delivery is at-most-once and never blocks the caller;
// durability comes from the persisted inbox alone.
type NotificationService struct {
	store  ports.Store
	logger *logger.Logger

	mu         sync.Mutex
	streams    map[uuid.UUID]*streamEntry
	bufferSize int
}

// NewNotificationService creates a new notification service.
func NewNotificationService(store ports.Store, bufferSize int, appLogger *logger.Logger) *NotificationService {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &NotificationService{
		store:      store,
		logger:     appLogger,
		streams:    make(map[uuid.UUID]*streamEntry),
		bufferSize: bufferSize,
	}
}

// Notify persists a notification for the user and mirrors it onto their live
// channel if one is attached.
func (s *NotificationService) Notify(ctx context.Context, toUserID, taskID uuid.UUID, message string) error {
	n := &entities.Notification{
		ID:        uuid.New(),
		ToUserID:  toUserID,
		TaskID:    taskID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}

	s.publish(n)

	return nil
}

// publish pushes the notification onto the recipient's live channel without
// blocking. A full channel or an absent subscriber drops the message.
func (s *NotificationService) publish(n *entities.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.streams[n.ToUserID]
	if !ok {
		return
	}

	select {
	case entry.ch <- n:
		notificationsPublishedTotal.Inc()
	default:
		s.logger.Warnw("live channel full, notification dropped",
			"user_id", n.ToUserID, "notification_id", n.ID)
	}
}

// Subscribe attaches to the user's live channel, creating it on first use.
// The returned cancel function must be called when the subscriber goes away;
// the channel is closed once the last subscriber detaches.
func (s *NotificationService) Subscribe(userID uuid.UUID) (<-chan *entities.Notification, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.streams[userID]
	if !ok {
		entry = &streamEntry{ch: make(chan *entities.Notification, s.bufferSize)}
		s.streams[userID] = entry
	}
	entry.refs++

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			entry.refs--
			if entry.refs <= 0 {
				delete(s.streams, userID)
				close(entry.ch)
			}
		})
	}

	return entry.ch, cancel
}

// ListInbox returns the actor's most recent notifications, newest first.
func (s *NotificationService) ListInbox(ctx context.Context, actor entities.Actor, limit int) ([]*entities.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultInboxLimit
	}

	items, err := s.store.Notifications().ListForUser(ctx, actor.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	n, err := s.store.Notifications().MarkRead(ctx, id, actor.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return n, nil
}
