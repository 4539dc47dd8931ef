package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
)

// TaskRepository defines task data operations. Methods that participate in
// the GENERAL-uniqueness invariant must be called through Store.WithinTx so
// the check and the write share one transaction.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, int, error)
	Search(ctx context.Context, query string, limit int) ([]TaskSearchHit, error)
	// FindOpenGeneral returns the open GENERAL task for the account, locking
	// the row when inside a transaction. exclude skips one task id (for
	// type-changing updates); pass uuid.Nil to match any.
	FindOpenGeneral(ctx context.Context, accountID, exclude uuid.UUID) (*entities.Task, error)
	// ListOverdue returns up to limit open tasks whose due date has passed.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entities.Task, error)
	// CloseIfOpen closes the task only if it is still open and reports
	// whether a row changed, making the sweeper idempotent.
	CloseIfOpen(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error)
}

// ActivityRepository defines activity log operations. Logs are append-only.
type ActivityRepository interface {
	Create(ctx context.Context, log *entities.ActivityLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.ActivityLog, error)
	ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]*entities.ActivityLog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OfferRepository defines offer operations.
type OfferRepository interface {
	Create(ctx context.Context, offer *entities.Offer) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.Offer, error)
	// UpdateStatusByTask sets the status of every offer on the task.
	UpdateStatusByTask(ctx context.Context, taskID uuid.UUID, status entities.OfferStatus) error
	DeleteByActivityLog(ctx context.Context, activityLogID uuid.UUID) error
}

// TaskListRepository defines task list operations.
type TaskListRepository interface {
	Create(ctx context.Context, list *entities.TaskList) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskList, error)
	Update(ctx context.Context, list *entities.TaskList) error
	List(ctx context.Context, filter TaskListFilter) ([]*entities.TaskList, error)
}

// UserRepository defines user data operations. Users are never deleted.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
}

// NotificationRepository defines the durable notification inbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error)
	// MarkRead marks the notification read only if it belongs to userID.
	MarkRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) (*entities.Notification, error)
}

// TaskContactRepository defines task-contact link operations.
type TaskContactRepository interface {
	Create(ctx context.Context, tc *entities.TaskContact) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskContact, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.TaskContact, error)
	Update(ctx context.Context, tc *entities.TaskContact) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearPrimary demotes every primary link on the task.
	ClearPrimary(ctx context.Context, taskID uuid.UUID) error
}

// AccountService is the consumed account collaborator. The engine references
// accounts but never owns them.
type AccountService interface {
	AppendHistory(ctx context.Context, accountID uuid.UUID, typ entities.HistoryType, summary string) error
	OpenTaskCount(ctx context.Context, accountID uuid.UUID) (int, error)
}

// AuditEntry describes one best-effort audit record.
type AuditEntry struct {
	EntityType string
	EntityID   uuid.UUID
	Action     string
	ActorID    uuid.UUID
	Previous   interface{}
	Next       interface{}
}

// AuditService is the consumed audit collaborator. Failures must never
// propagate into the primary operation.
type AuditService interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// Store bundles the repositories behind a single transactional boundary.
// WithinTx runs fn against a Store whose repositories share one database
// transaction; the transaction commits when fn returns nil.
type Store interface {
	Tasks() TaskRepository
	Activities() ActivityRepository
	Offers() OfferRepository
	TaskLists() TaskListRepository
	Users() UserRepository
	Notifications() NotificationRepository
	TaskContacts() TaskContactRepository
	Accounts() AccountService

	WithinTx(ctx context.Context, fn func(Store) error) error
}

// TaskSearchHit is a typeahead search result.
type TaskSearchHit struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Label string    `json:"label" db:"label"`
}

// Filter types for repository queries

type TaskFilter struct {
	TaskListID    *uuid.UUID
	OwnerID       *uuid.UUID
	Unassigned    bool
	Statuses      []entities.TaskStatus
	GeneralStatus *entities.GeneralStatus
	Priority      *entities.Priority
	Category      *entities.TaskCategory
	AccountType   *entities.AccountType
	Source        *entities.TaskSource
	MainCategory  *string
	SubCategory   *string
	City          *string
	District      *string
	Query         *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time

	// Visibility scope, set by the service from the actor's role. Applied as
	// query predicates so pagination counts stay correct.
	ScopeOwnerID   *uuid.UUID
	ScopeManagerID *uuid.UUID

	Page  int
	Limit int
}

type TaskListFilter struct {
	Tag      *entities.TaskListTag
	IsActive *bool
}

type UserFilter struct {
	Role      *entities.Role
	ManagerID *uuid.UUID
	IsActive  *bool
	Limit     int
	Offset    int
}
