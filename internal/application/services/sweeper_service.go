package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/infrastructure/logger"
	"github.com/salesflow/core/internal/ports"
)

// SweeperService closes open tasks whose due date has passed. It runs one
// transaction per task to keep lock windows short; a failure on one task
// never stops the rest of the batch, and re-running against an already
// closed task is a no-op.
type SweeperService struct {
	store    ports.Store
	notifier *NotificationService
	logger   *logger.Logger

	interval  time.Duration
	batchSize int

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSweeperService creates a new overdue sweeper.
func NewSweeperService(store ports.Store, notifier *NotificationService, interval time.Duration, batchSize int, appLogger *logger.Logger) *SweeperService {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}
	return &SweeperService{
		store:     store,
		notifier:  notifier,
		logger:    appLogger.WithComponent("sweeper"),
		interval:  interval,
		batchSize: batchSize,
		stop:      make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; use Stop to halt.
func (s *SweeperService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Infow("sweeper started", "interval", s.interval, "batch_size", s.batchSize)

		for {
			select {
			case <-ticker.C:
				closed, err := s.RunOnce(ctx)
				if err != nil {
					s.logger.Errorw("sweep run failed", "error", err)
				} else if closed > 0 {
					s.logger.Infow("sweep run complete", "closed", closed)
				}
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for an in-flight run to finish.
func (s *SweeperService) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// RunOnce performs a single sweep and returns how many tasks it closed.
func (s *SweeperService) RunOnce(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	overdue, err := s.store.Tasks().ListOverdue(ctx, now, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	closed := 0
	for _, task := range overdue {
		didClose, err := s.closeOne(ctx, task, now)
		if err != nil {
			sweeperFailuresTotal.Inc()
			s.logger.Errorw("failed to close overdue task", "task_id", task.ID, "error", err)
			continue
		}
		if !didClose {
			continue
		}

		closed++
		tasksAutoclosedTotal.Inc()

		if task.OwnerID != nil {
			if err := s.notifier.Notify(ctx, *task.OwnerID, task.ID,
				"Task due date passed and auto-closed"); err != nil {
				s.logger.Warnw("failed to notify owner of auto-close",
					"task_id", task.ID, "owner_id", *task.OwnerID, "error", err)
			}
		}
	}

	return closed, nil
}

// closeOne closes a single overdue task and appends its account history in
// one transaction. The open-only predicate inside CloseIfOpen makes a race
// with a concurrent manual close harmless.
func (s *SweeperService) closeOne(ctx context.Context, task *entities.Task, now time.Time) (bool, error) {
	var didClose bool
	err := s.store.WithinTx(ctx, func(tx ports.Store) error {
		ok, err := tx.Tasks().CloseIfOpen(ctx, task.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		didClose = true
		return tx.Accounts().AppendHistory(ctx, task.AccountID,
			entities.HistoryDueDatePassed, "Task due date passed, auto-closed")
	})
	return didClose, err
}
