package ports

import (
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
)

// Request types consumed by the application services. Validation tags are
// evaluated by the HTTP layer's validator before the service runs its own
// domain checks.

type CreateTaskRequest struct {
	TaskListID   uuid.UUID             `json:"task_list_id" validate:"required"`
	AccountID    uuid.UUID             `json:"account_id" validate:"required"`
	Category     entities.TaskCategory `json:"category" validate:"required,oneof=ISTANBUL_CORE ANADOLU_CORE TRAVEL"`
	Type         entities.TaskType     `json:"type" validate:"required,oneof=GENERAL PROJECT"`
	Priority     entities.Priority     `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	AccountType  entities.AccountType  `json:"account_type" validate:"required,oneof=KEY LONG_TAIL"`
	Source       entities.TaskSource   `json:"source" validate:"required,oneof=QUERY FRESH RAKIP REFERANS OLD"`
	MainCategory string                `json:"main_category" validate:"required"`
	SubCategory  string                `json:"sub_category" validate:"required"`
	Contact      *string               `json:"contact"`
	City         *string               `json:"city"`
	District     *string               `json:"district"`
	Details      string                `json:"details" validate:"required"`
	OwnerID      *uuid.UUID            `json:"owner_id"`
	DurationDays *int                  `json:"duration_days" validate:"omitempty,min=1"`
	Status       *entities.TaskStatus  `json:"status" validate:"omitempty,oneof=HOT NOT_HOT DEAL COLD"`
}

type UpdateTaskRequest struct {
	Category     *entities.TaskCategory `json:"category" validate:"omitempty,oneof=ISTANBUL_CORE ANADOLU_CORE TRAVEL"`
	Type         *entities.TaskType     `json:"type" validate:"omitempty,oneof=GENERAL PROJECT"`
	Priority     *entities.Priority     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	AccountType  *entities.AccountType  `json:"account_type" validate:"omitempty,oneof=KEY LONG_TAIL"`
	Source       *entities.TaskSource   `json:"source" validate:"omitempty,oneof=QUERY FRESH RAKIP REFERANS OLD"`
	MainCategory *string                `json:"main_category"`
	SubCategory  *string                `json:"sub_category"`
	Contact      *string                `json:"contact"`
	City         *string                `json:"city"`
	District     *string                `json:"district"`
	Details      *string                `json:"details"`
}

type AssignTaskRequest struct {
	OwnerID      uuid.UUID `json:"owner_id" validate:"required"`
	DurationDays int       `json:"duration_days" validate:"required,min=1"`
}

type ActivityRequest struct {
	Reason       entities.Reason `json:"reason" validate:"required"`
	FollowUpDate *time.Time      `json:"follow_up_date"`
	Text         *string         `json:"text"`
	AdFee        *float64        `json:"ad_fee" validate:"omitempty,min=0"`
	Commission   *float64        `json:"commission" validate:"omitempty,min=0"`
	Joker        *float64        `json:"joker" validate:"omitempty,min=0"`
}

type SetStatusRequest struct {
	Status       entities.TaskStatus `json:"status" validate:"required,oneof=HOT NOT_HOT DEAL COLD"`
	Close        bool                `json:"close"`
	ClosedReason *string             `json:"closed_reason"`
}

type CreateTaskListRequest struct {
	Name        string               `json:"name" validate:"required"`
	Tag         entities.TaskListTag `json:"tag" validate:"required,oneof=GENERAL PROJECT"`
	Description *string              `json:"description"`
}

type UpdateTaskListRequest struct {
	Name        *string               `json:"name"`
	Tag         *entities.TaskListTag `json:"tag" validate:"omitempty,oneof=GENERAL PROJECT"`
	Description *string               `json:"description"`
	IsActive    *bool                 `json:"is_active"`
}

type CreateUserRequest struct {
	Email     string        `json:"email" validate:"required,email"`
	Name      string        `json:"name" validate:"required"`
	Password  string        `json:"password" validate:"required,min=8"`
	Role      entities.Role `json:"role" validate:"required,oneof=SALESPERSON TEAM_LEADER MANAGER ADMIN"`
	ManagerID *uuid.UUID    `json:"manager_id"`
}

type ChangeRoleRequest struct {
	Role      entities.Role `json:"role" validate:"required,oneof=SALESPERSON TEAM_LEADER MANAGER ADMIN"`
	ManagerID *uuid.UUID    `json:"manager_id"`
}

type AddTaskContactRequest struct {
	ContactID uuid.UUID `json:"contact_id" validate:"required"`
	IsPrimary bool      `json:"is_primary"`
}

type UpdateTaskContactRequest struct {
	IsPrimary *bool `json:"is_primary"`
}

// TaskDetail is a task together with its recent activity and offers.
type TaskDetail struct {
	Task   *entities.Task          `json:"task"`
	Logs   []*entities.ActivityLog `json:"logs"`
	Offers []*entities.Offer       `json:"offers"`
}

// TaskPage is one page of a scoped task listing.
type TaskPage struct {
	Items []*entities.Task `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
