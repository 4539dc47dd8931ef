package entities

import (
	"time"

	"github.com/google/uuid"
)

// Enums and types
type Role string

const (
	RoleSalesperson Role = "SALESPERSON"
	RoleTeamLeader  Role = "TEAM_LEADER"
	RoleManager     Role = "MANAGER"
	RoleAdmin       Role = "ADMIN"
)

var roleRank = map[Role]int{
	RoleSalesperson: 1,
	RoleTeamLeader:  2,
	RoleManager:     3,
	RoleAdmin:       4,
}

// AtLeast reports whether the role sits at or above minimum in the hierarchy.
func (r Role) AtLeast(minimum Role) bool {
	return roleRank[r] >= roleRank[minimum]
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

type TaskListTag string

const (
	TagGeneral TaskListTag = "GENERAL"
	TagProject TaskListTag = "PROJECT"
)

func (t TaskListTag) IsValid() bool {
	return t == TagGeneral || t == TagProject
}

type TaskType string

const (
	TaskTypeGeneral TaskType = "GENERAL"
	TaskTypeProject TaskType = "PROJECT"
)

func (t TaskType) IsValid() bool {
	return t == TaskTypeGeneral || t == TaskTypeProject
}

// MatchesTag reports whether the task type is consistent with a list tag.
func (t TaskType) MatchesTag(tag TaskListTag) bool {
	return string(t) == string(tag)
}

type TaskStatus string

const (
	StatusHot    TaskStatus = "HOT"
	StatusNotHot TaskStatus = "NOT_HOT"
	StatusDeal   TaskStatus = "DEAL"
	StatusCold   TaskStatus = "COLD"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusHot, StatusNotHot, StatusDeal, StatusCold:
		return true
	default:
		return false
	}
}

// Closable reports whether a task in this status may be closed manually.
func (s TaskStatus) Closable() bool {
	return s == StatusDeal || s == StatusCold
}

type GeneralStatus string

const (
	GeneralOpen   GeneralStatus = "OPEN"
	GeneralClosed GeneralStatus = "CLOSED"
)

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

type TaskCategory string

const (
	CategoryIstanbulCore TaskCategory = "ISTANBUL_CORE"
	CategoryAnadoluCore  TaskCategory = "ANADOLU_CORE"
	CategoryTravel       TaskCategory = "TRAVEL"
)

func (c TaskCategory) IsValid() bool {
	switch c {
	case CategoryIstanbulCore, CategoryAnadoluCore, CategoryTravel:
		return true
	default:
		return false
	}
}

type AccountType string

const (
	AccountKey      AccountType = "KEY"
	AccountLongTail AccountType = "LONG_TAIL"
)

func (a AccountType) IsValid() bool {
	return a == AccountKey || a == AccountLongTail
}

type TaskSource string

const (
	SourceQuery    TaskSource = "QUERY"
	SourceFresh    TaskSource = "FRESH"
	SourceRakip    TaskSource = "RAKIP"
	SourceReferans TaskSource = "REFERANS"
	SourceOld      TaskSource = "OLD"
)

func (s TaskSource) IsValid() bool {
	switch s {
	case SourceQuery, SourceFresh, SourceRakip, SourceReferans, SourceOld:
		return true
	default:
		return false
	}
}

// Reason is the closed set of activity log reason codes. The codes carry the
// sales vocabulary of the business and drive the derived offer state machine.
type Reason string

const (
	ReasonYetkiliyeUlasildi         Reason = "YETKILIYE_ULASILDI"
	ReasonYetkiliyeUlasilamadi      Reason = "YETKILIYE_ULASILAMADI"
	ReasonIsletmeyeUlasilamadi      Reason = "ISLETMEYE_ULASILAMADI"
	ReasonTeklifVerildi             Reason = "TEKLIF_VERILDI"
	ReasonKarsiTeklif               Reason = "KARSITEKLIF"
	ReasonTeklifKabul               Reason = "TEKLIF_KABUL"
	ReasonTeklifRed                 Reason = "TEKLIF_RED"
	ReasonIsletmeCalismakIstemiyor  Reason = "ISLETME_CALISMAK_ISTEMIYOR"
	ReasonGrupanyaCalismakIstemiyor Reason = "GRUPANYA_CALISMAK_ISTEMIYOR"
	ReasonTekrarAranacak            Reason = "TEKRAR_ARANACAK"
)

func (r Reason) IsValid() bool {
	switch r {
	case ReasonYetkiliyeUlasildi, ReasonYetkiliyeUlasilamadi, ReasonIsletmeyeUlasilamadi,
		ReasonTeklifVerildi, ReasonKarsiTeklif, ReasonTeklifKabul, ReasonTeklifRed,
		ReasonIsletmeCalismakIstemiyor, ReasonGrupanyaCalismakIstemiyor, ReasonTekrarAranacak:
		return true
	default:
		return false
	}
}

type OfferType string

const (
	OfferOur     OfferType = "OUR_OFFER"
	OfferCounter OfferType = "COUNTER_OFFER"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

// HistoryType classifies account history entries emitted by the workflow engine.
type HistoryType string

const (
	HistoryTaskOpen      HistoryType = "TASK_OPEN"
	HistoryProfileUpdate HistoryType = "PROFILE_UPDATE"
	HistoryTaskClose     HistoryType = "TASK_CLOSE"
	HistoryDueDatePassed HistoryType = "DUE_DATE_PASSED"
)

// Actor is the resolved authentication context every operation receives. The
// engine never authenticates; the transport layer resolves tokens into an
// Actor before calling in.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// User represents a system user. Users are created by admin operations and
// are deactivated instead of deleted.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	ManagerID    *uuid.UUID `json:"manager_id" db:"manager_id"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskList is a named grouping of tasks with a fixed category tag.
type TaskList struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Tag         TaskListTag `json:"tag" db:"tag"`
	Description *string     `json:"description" db:"description"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	CreatedByID uuid.UUID   `json:"created_by_id" db:"created_by_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Task is the central entity: one unit of sales work tied to an account.
type Task struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	TaskListID     uuid.UUID     `json:"task_list_id" db:"task_list_id"`
	AccountID      uuid.UUID     `json:"account_id" db:"account_id"`
	OwnerID        *uuid.UUID    `json:"owner_id" db:"owner_id"`
	CreatedByID    uuid.UUID     `json:"created_by_id" db:"created_by_id"`
	Category       TaskCategory  `json:"category" db:"category"`
	Type           TaskType      `json:"type" db:"type"`
	Priority       Priority      `json:"priority" db:"priority"`
	AccountType    AccountType   `json:"account_type" db:"account_type"`
	Source         TaskSource    `json:"source" db:"source"`
	MainCategory   string        `json:"main_category" db:"main_category"`
	SubCategory    string        `json:"sub_category" db:"sub_category"`
	Contact        *string       `json:"contact" db:"contact"`
	City           *string       `json:"city" db:"city"`
	District       *string       `json:"district" db:"district"`
	Details        string        `json:"details" db:"details"`
	CreationDate   time.Time     `json:"creation_date" db:"creation_date"`
	AssignmentDate *time.Time    `json:"assignment_date" db:"assignment_date"`
	DueDate        *time.Time    `json:"due_date" db:"due_date"`
	DurationDays   *int          `json:"duration_days" db:"duration_days"`
	Status         TaskStatus    `json:"status" db:"status"`
	GeneralStatus  GeneralStatus `json:"general_status" db:"general_status"`
	ClosedAt       *time.Time    `json:"closed_at" db:"closed_at"`
	ClosedReason   *string       `json:"closed_reason" db:"closed_reason"`
}

// IsOpen reports whether the task is still open.
func (t *Task) IsOpen() bool {
	return t.GeneralStatus == GeneralOpen
}

// IsOwnedBy reports whether the given user owns the task.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.OwnerID != nil && *t.OwnerID == userID
}

// Assign records a new owner and recomputes the assignment window. A prior
// assignment is always overwritten.
func (t *Task) Assign(ownerID uuid.UUID, durationDays int, now time.Time) {
	due := now.Add(time.Duration(durationDays) * 24 * time.Hour)
	t.OwnerID = &ownerID
	t.DurationDays = &durationDays
	t.AssignmentDate = &now
	t.DueDate = &due
}

// Close marks the task closed. ClosedAt and ClosedReason become immutable
// history once set.
func (t *Task) Close(now time.Time, reason *string) {
	t.GeneralStatus = GeneralClosed
	t.ClosedAt = &now
	t.ClosedReason = reason
}

// ActivityLog is an append-only record of what happened during an attempt to
// progress a task. Logs are never updated.
type ActivityLog struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TaskID       uuid.UUID  `json:"task_id" db:"task_id"`
	AuthorID     uuid.UUID  `json:"author_id" db:"author_id"`
	Reason       Reason     `json:"reason" db:"reason"`
	FollowUpDate *time.Time `json:"follow_up_date" db:"follow_up_date"`
	Text         *string    `json:"text" db:"text"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Offer is a priced proposal derived from specific activity reasons.
type Offer struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	TaskID        uuid.UUID   `json:"task_id" db:"task_id"`
	ActivityLogID *uuid.UUID  `json:"activity_log_id" db:"activity_log_id"`
	AdFee         float64     `json:"ad_fee" db:"ad_fee"`
	Commission    float64     `json:"commission" db:"commission"`
	Joker         float64     `json:"joker" db:"joker"`
	Type          OfferType   `json:"type" db:"type"`
	Status        OfferStatus `json:"status" db:"status"`
	CreatedByID   uuid.UUID   `json:"created_by_id" db:"created_by_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// Notification is a durable inbox entry for a user, optionally mirrored onto
// that user's live stream.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ToUserID  uuid.UUID  `json:"to_user_id" db:"to_user_id"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	Message   string     `json:"message" db:"message"`
	ReadAt    *time.Time `json:"read_at" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// IsRead reports whether the notification has been marked read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// TaskContact links a task to a contact person. At most one link per task is
// primary.
type TaskContact struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TaskID    uuid.UUID `json:"task_id" db:"task_id"`
	ContactID uuid.UUID `json:"contact_id" db:"contact_id"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
