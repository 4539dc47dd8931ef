package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/ports"
)

const taskColumns = `id, task_list_id, account_id, owner_id, created_by_id, category, type, priority,
	account_type, source, main_category, sub_category, contact, city, district, details,
	creation_date, assignment_date, due_date, duration_days, status, general_status, closed_at, closed_reason`

// openGeneralConstraint is the partial unique index backing the
// one-open-GENERAL-task-per-account invariant.
const openGeneralConstraint = "tasks_open_general_account_uniq"

// TaskRepository implements ports.TaskRepository over Postgres.
type TaskRepository struct {
	q queryer
}

// Create persists a new task. A unique violation on the open-GENERAL index is
// translated into a ConflictError so races lost against a concurrent create
// surface the same way as the in-transaction check.
func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, task_list_id, account_id, owner_id, created_by_id, category, type, priority,
			account_type, source, main_category, sub_category, contact, city, district, details,
			creation_date, assignment_date, due_date, duration_days, status, general_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.q.ExecContext(ctx, query,
		task.ID,
		task.TaskListID,
		task.AccountID,
		task.OwnerID,
		task.CreatedByID,
		task.Category,
		task.Type,
		task.Priority,
		task.AccountType,
		task.Source,
		task.MainCategory,
		task.SubCategory,
		task.Contact,
		task.City,
		task.District,
		task.Details,
		task.CreationDate,
		task.AssignmentDate,
		task.DueDate,
		task.DurationDays,
		task.Status,
		task.GeneralStatus,
	)
	if err != nil {
		if isOpenGeneralConflict(err) {
			return &entities.ConflictError{Message: "account already has an open GENERAL task"}
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	var task entities.Task
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	if err := r.q.GetContext(ctx, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.NewNotFound("task", id.String())
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// Update persists the mutable task fields.
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET owner_id = $2, category = $3, type = $4, priority = $5, account_type = $6, source = $7,
			main_category = $8, sub_category = $9, contact = $10, city = $11, district = $12, details = $13,
			assignment_date = $14, due_date = $15, duration_days = $16, status = $17, general_status = $18,
			closed_at = $19, closed_reason = $20
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Category,
		task.Type,
		task.Priority,
		task.AccountType,
		task.Source,
		task.MainCategory,
		task.SubCategory,
		task.Contact,
		task.City,
		task.District,
		task.Details,
		task.AssignmentDate,
		task.DueDate,
		task.DurationDays,
		task.Status,
		task.GeneralStatus,
		task.ClosedAt,
		task.ClosedReason,
	)
	if err != nil {
		if isOpenGeneralConflict(err) {
			return &entities.ConflictError{Message: "account already has an open GENERAL task"}
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.NewNotFound("task", task.ID.String())
	}

	return nil
}

// List retrieves tasks with filtering, visibility scoping and pagination.
// The scope predicates are part of the WHERE clause so the total count and
// the page agree.
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	addCondition := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.TaskListID != nil {
		addCondition("task_list_id = $%d", *filter.TaskListID)
	}
	if filter.Unassigned {
		conditions = append(conditions, "owner_id IS NULL")
	} else if filter.OwnerID != nil {
		addCondition("owner_id = $%d", *filter.OwnerID)
	}
	if len(filter.Statuses) == 1 {
		addCondition("status = $%d", filter.Statuses[0])
	} else if len(filter.Statuses) > 1 {
		addCondition("status = ANY($%d)", pq.Array(filter.Statuses))
	}
	if filter.GeneralStatus != nil {
		addCondition("general_status = $%d", *filter.GeneralStatus)
	}
	if filter.Priority != nil {
		addCondition("priority = $%d", *filter.Priority)
	}
	if filter.Category != nil {
		addCondition("category = $%d", *filter.Category)
	}
	if filter.AccountType != nil {
		addCondition("account_type = $%d", *filter.AccountType)
	}
	if filter.Source != nil {
		addCondition("source = $%d", *filter.Source)
	}
	if filter.MainCategory != nil && *filter.MainCategory != "" {
		addCondition("main_category ILIKE $%d", "%"+*filter.MainCategory+"%")
	}
	if filter.SubCategory != nil && *filter.SubCategory != "" {
		addCondition("sub_category ILIKE $%d", "%"+*filter.SubCategory+"%")
	}
	if filter.City != nil && *filter.City != "" {
		addCondition("city ILIKE $%d", "%"+*filter.City+"%")
	}
	if filter.District != nil && *filter.District != "" {
		addCondition("district ILIKE $%d", "%"+*filter.District+"%")
	}
	if filter.CreatedFrom != nil {
		addCondition("creation_date >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addCondition("creation_date <= $%d", *filter.CreatedTo)
	}
	if filter.Query != nil && *filter.Query != "" {
		pattern := "%" + *filter.Query + "%"
		conditions = append(conditions, fmt.Sprintf("(id::text ILIKE $%d OR details ILIKE $%d)", argIndex, argIndex))
		args = append(args, pattern)
		argIndex++
	}

	// Visibility scope
	if filter.ScopeOwnerID != nil {
		addCondition("owner_id = $%d", *filter.ScopeOwnerID)
	}
	if filter.ScopeManagerID != nil {
		addCondition("owner_id IN (SELECT id FROM users WHERE manager_id = $%d)", *filter.ScopeManagerID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tasks %s", whereClause)
	var total int
	if err := r.q.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT %s FROM tasks %s
		ORDER BY creation_date DESC
		LIMIT $%d OFFSET $%d
	`, taskColumns, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	var tasks []*entities.Task
	if err := r.q.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Search returns typeahead hits matching id or details.
func (r *TaskRepository) Search(ctx context.Context, query string, limit int) ([]ports.TaskSearchHit, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	pattern := "%" + query + "%"
	var hits []ports.TaskSearchHit
	err := r.q.SelectContext(ctx, &hits, `
		SELECT id, (account_id::text || ' - ' || left(details, 60)) AS label
		FROM tasks
		WHERE id::text ILIKE $1 OR details ILIKE $1
		ORDER BY creation_date DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}

	return hits, nil
}

// FindOpenGeneral returns the open GENERAL task for the account, if any. Run
// inside a transaction the row lock holds until commit, serializing the
// check-then-act against concurrent writers on the same account.
func (r *TaskRepository) FindOpenGeneral(ctx context.Context, accountID, exclude uuid.UUID) (*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE account_id = $1 AND type = 'GENERAL' AND general_status = 'OPEN' AND id <> $2
		LIMIT 1
		FOR UPDATE
	`, taskColumns)

	var task entities.Task
	if err := r.q.GetContext(ctx, &task, query, accountID, exclude); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open general task: %w", err)
	}

	return &task, nil
}

// ListOverdue returns up to limit open tasks past their due date.
func (r *TaskRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE general_status = 'OPEN' AND due_date IS NOT NULL AND due_date < $1
		ORDER BY due_date ASC
		LIMIT $2
	`, taskColumns)

	var tasks []*entities.Task
	if err := r.q.SelectContext(ctx, &tasks, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	return tasks, nil
}

// CloseIfOpen closes the task only if it is still open. The OPEN predicate
// in the WHERE clause makes repeated sweeps a no-op.
func (r *TaskRepository) CloseIfOpen(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE tasks
		SET general_status = 'CLOSED', closed_at = $2, closed_reason = 'OVERDUE'
		WHERE id = $1 AND general_status = 'OPEN'
	`, id, closedAt)
	if err != nil {
		return false, fmt.Errorf("failed to close task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func isOpenGeneralConflict(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == openGeneralConstraint
}
