package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/ports"
)

// ActivityRepository implements ports.ActivityRepository over Postgres.
type ActivityRepository struct {
	q queryer
}

const activityColumns = `id, task_id, author_id, reason, follow_up_date, text, created_at`

func (r *ActivityRepository) Create(ctx context.Context, log *entities.ActivityLog) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO activity_logs (id, task_id, author_id, reason, follow_up_date, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, log.ID, log.TaskID, log.AuthorID, log.Reason, log.FollowUpDate, log.Text, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.ActivityLog, error) {
	var log entities.ActivityLog
	query := fmt.Sprintf(`SELECT %s FROM activity_logs WHERE id = $1`, activityColumns)

	if err := r.q.GetContext(ctx, &log, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.NewNotFound("activity log", id.String())
		}
		return nil, fmt.Errorf("failed to get activity log: %w", err)
	}
	return &log, nil
}

func (r *ActivityRepository) ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]*entities.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT %s FROM activity_logs
		WHERE task_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, activityColumns)

	var logs []*entities.ActivityLog
	if err := r.q.SelectContext(ctx, &logs, query, taskID, limit); err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return logs, nil
}

func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM activity_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.NewNotFound("activity log", id.String())
	}
	return nil
}

// OfferRepository implements ports.OfferRepository over Postgres.
type OfferRepository struct {
	q queryer
}

const offerColumns = `id, task_id, activity_log_id, ad_fee, commission, joker, type, status, created_by_id, created_at`

func (r *OfferRepository) Create(ctx context.Context, offer *entities.Offer) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO offers (id, task_id, activity_log_id, ad_fee, commission, joker, type, status, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, offer.ID, offer.TaskID, offer.ActivityLogID, offer.AdFee, offer.Commission, offer.Joker,
		offer.Type, offer.Status, offer.CreatedByID, offer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *OfferRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE task_id = $1 ORDER BY created_at ASC`, offerColumns)

	var offers []*entities.Offer
	if err := r.q.SelectContext(ctx, &offers, query, taskID); err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

func (r *OfferRepository) UpdateStatusByTask(ctx context.Context, taskID uuid.UUID, status entities.OfferStatus) error {
	_, err := r.q.ExecContext(ctx, `UPDATE offers SET status = $2 WHERE task_id = $1`, taskID, status)
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}
	return nil
}

func (r *OfferRepository) DeleteByActivityLog(ctx context.Context, activityLogID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM offers WHERE activity_log_id = $1`, activityLogID)
	if err != nil {
		return fmt.Errorf("failed to delete offers: %w", err)
	}
	return nil
}

// TaskListRepository implements ports.TaskListRepository over Postgres.
type TaskListRepository struct {
	q queryer
}

const taskListColumns = `id, name, tag, description, is_active, created_by_id, created_at, updated_at`

func (r *TaskListRepository) Create(ctx context.Context, list *entities.TaskList) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO task_lists (id, name, tag, description, is_active, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, list.ID, list.Name, list.Tag, list.Description, list.IsActive, list.CreatedByID, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task list: %w", err)
	}
	return nil
}

func (r *TaskListRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskList, error) {
	var list entities.TaskList
	query := fmt.Sprintf(`SELECT %s FROM task_lists WHERE id = $1`, taskListColumns)

	if err := r.q.GetContext(ctx, &list, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.NewNotFound("task list", id.String())
		}
		return nil, fmt.Errorf("failed to get task list: %w", err)
	}
	return &list, nil
}

func (r *TaskListRepository) Update(ctx context.Context, list *entities.TaskList) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE task_lists
		SET name = $2, tag = $3, description = $4, is_active = $5, updated_at = $6
		WHERE id = $1
	`, list.ID, list.Name, list.Tag, list.Description, list.IsActive, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update task list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.NewNotFound("task list", list.ID.String())
	}
	return nil
}

func (r *TaskListRepository) List(ctx context.Context, filter ports.TaskListFilter) ([]*entities.TaskList, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Tag != nil {
		conditions = append(conditions, fmt.Sprintf("tag = $%d", argIndex))
		args = append(args, *filter.Tag)
		argIndex++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM task_lists %s ORDER BY name ASC`, taskListColumns, whereClause)

	var lists []*entities.TaskList
	if err := r.q.SelectContext(ctx, &lists, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}
	return lists, nil
}

// NotificationRepository implements the durable notification inbox.
type NotificationRepository struct {
	q queryer
}

const notificationColumns = `id, to_user_id, task_id, message, read_at, created_at`

func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO notifications (id, to_user_id, task_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, n.ID, n.ToUserID, n.TaskID, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE to_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, notificationColumns)

	var items []*entities.Notification
	if err := r.q.SelectContext(ctx, &items, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) (*entities.Notification, error) {
	var n entities.Notification
	query := fmt.Sprintf(`
		UPDATE notifications SET read_at = $2 WHERE id = $1 AND to_user_id = $3
		RETURNING %s
	`, notificationColumns)

	if err := r.q.GetContext(ctx, &n, query, id, readAt, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.NewNotFound("notification", id.String())
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return &n, nil
}

// TaskContactRepository implements ports.TaskContactRepository over Postgres.
type TaskContactRepository struct {
	q queryer
}

const taskContactColumns = `id, task_id, contact_id, is_primary, created_at`

func (r *TaskContactRepository) Create(ctx context.Context, tc *entities.TaskContact) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO task_contacts (id, task_id, contact_id, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, tc.ID, tc.TaskID, tc.ContactID, tc.IsPrimary, tc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task contact: %w", err)
	}
	return nil
}

func (r *TaskContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskContact, error) {
	var tc entities.TaskContact
	query := fmt.Sprintf(`SELECT %s FROM task_contacts WHERE id = $1`, taskContactColumns)

	if err := r.q.GetContext(ctx, &tc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.NewNotFound("task contact", id.String())
		}
		return nil, fmt.Errorf("failed to get task contact: %w", err)
	}
	return &tc, nil
}

func (r *TaskContactRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.TaskContact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM task_contacts
		WHERE task_id = $1
		ORDER BY is_primary DESC, created_at ASC
	`, taskContactColumns)

	var items []*entities.TaskContact
	if err := r.q.SelectContext(ctx, &items, query, taskID); err != nil {
		return nil, fmt.Errorf("failed to list task contacts: %w", err)
	}
	return items, nil
}

func (r *TaskContactRepository) Update(ctx context.Context, tc *entities.TaskContact) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE task_contacts SET is_primary = $2 WHERE id = $1
	`, tc.ID, tc.IsPrimary)
	if err != nil {
		return fmt.Errorf("failed to update task contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.NewNotFound("task contact", tc.ID.String())
	}
	return nil
}

func (r *TaskContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM task_contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.NewNotFound("task contact", id.String())
	}
	return nil
}

func (r *TaskContactRepository) ClearPrimary(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `UPDATE task_contacts SET is_primary = false WHERE task_id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to clear primary contact: %w", err)
	}
	return nil
}

// AccountAdapter backs the account collaborator with the shared relational
// store. Only the history append and the open-task count cross the boundary.
type AccountAdapter struct {
	q queryer
}

func (a *AccountAdapter) AppendHistory(ctx context.Context, accountID uuid.UUID, typ entities.HistoryType, summary string) error {
	_, err := a.q.ExecContext(ctx, `
		INSERT INTO account_history (id, account_id, type, summary, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), accountID, typ, summary, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append account history: %w", err)
	}
	return nil
}

func (a *AccountAdapter) OpenTaskCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := a.q.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tasks WHERE account_id = $1 AND general_status = 'OPEN'`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to count open tasks: %w", err)
	}
	return count, nil
}

// AuditAdapter records best-effort audit entries. Callers are expected to
// log and swallow its errors.
type AuditAdapter struct {
	db queryer
}

// NewAuditAdapter creates an audit adapter bound to the given database.
func NewAuditAdapter(db queryer) *AuditAdapter {
	return &AuditAdapter{db: db}
}

func (a *AuditAdapter) Record(ctx context.Context, entry ports.AuditEntry) error {
	previous, err := marshalAuditPayload(entry.Previous)
	if err != nil {
		return err
	}
	next, err := marshalAuditPayload(entry.Next)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, entity_type, entity_id, action, actor_id, previous_data, next_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), entry.EntityType, entry.EntityID, entry.Action, entry.ActorID, previous, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func marshalAuditPayload(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	return data, nil
}
