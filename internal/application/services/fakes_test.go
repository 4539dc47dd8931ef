package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salesflow/core/internal/domain/entities"
	"github.com/salesflow/core/internal/ports"
)

// fakeStore is an in-memory ports.Store for service tests. WithinTx runs the
// callback against the same store; tests rely on services validating before
// they write, so no rollback simulation is needed.
type fakeStore struct {
	tasks         map[uuid.UUID]*entities.Task
	lists         map[uuid.UUID]*entities.TaskList
	users         map[uuid.UUID]*entities.User
	logs          map[uuid.UUID]*entities.ActivityLog
	offers        map[uuid.UUID]*entities.Offer
	notifications []*entities.Notification
	contacts      map[uuid.UUID]*entities.TaskContact
	history       []fakeHistoryEntry
}

type fakeHistoryEntry struct {
	accountID uuid.UUID
	typ       entities.HistoryType
	summary   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:    make(map[uuid.UUID]*entities.Task),
		lists:    make(map[uuid.UUID]*entities.TaskList),
		users:    make(map[uuid.UUID]*entities.User),
		logs:     make(map[uuid.UUID]*entities.ActivityLog),
		offers:   make(map[uuid.UUID]*entities.Offer),
		contacts: make(map[uuid.UUID]*entities.TaskContact),
	}
}

func (s *fakeStore) Tasks() ports.TaskRepository                 { return &fakeTasks{s} }
func (s *fakeStore) Activities() ports.ActivityRepository       { return &fakeActivities{s} }
func (s *fakeStore) Offers() ports.OfferRepository              { return &fakeOffers{s} }
func (s *fakeStore) TaskLists() ports.TaskListRepository        { return &fakeTaskLists{s} }
func (s *fakeStore) Users() ports.UserRepository                { return &fakeUsers{s} }
func (s *fakeStore) Notifications() ports.NotificationRepository { return &fakeNotifications{s} }
func (s *fakeStore) TaskContacts() ports.TaskContactRepository  { return &fakeContacts{s} }
func (s *fakeStore) Accounts() ports.AccountService             { return &fakeAccounts{s} }

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ports.Store) error) error {
	return fn(s)
}

func (s *fakeStore) historyFor(accountID uuid.UUID) []fakeHistoryEntry {
	var out []fakeHistoryEntry
	for _, h := range s.history {
		if h.accountID == accountID {
			out = append(out, h)
		}
	}
	return out
}

type fakeTasks struct{ s *fakeStore }

func (r *fakeTasks) Create(ctx context.Context, task *entities.Task) error {
	cp := *task
	r.s.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTasks) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	task, ok := r.s.tasks[id]
	if !ok {
		return nil, entities.NewNotFound("task", id.String())
	}
	cp := *task
	return &cp, nil
}

func (r *fakeTasks) Update(ctx context.Context, task *entities.Task) error {
	if _, ok := r.s.tasks[task.ID]; !ok {
		return entities.NewNotFound("task", task.ID.String())
	}
	cp := *task
	r.s.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTasks) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	var matched []*entities.Task
	for _, t := range r.s.tasks {
		if filter.TaskListID != nil && t.TaskListID != *filter.TaskListID {
			continue
		}
		if filter.GeneralStatus != nil && t.GeneralStatus != *filter.GeneralStatus {
			continue
		}
		if filter.OwnerID != nil && !t.IsOwnedBy(*filter.OwnerID) {
			continue
		}
		if len(filter.Statuses) > 0 {
			found := false
			for _, st := range filter.Statuses {
				if t.Status == st {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.ScopeOwnerID != nil && !t.IsOwnedBy(*filter.ScopeOwnerID) {
			continue
		}
		if filter.Unassigned && t.OwnerID != nil {
			continue
		}
		if filter.ScopeManagerID != nil {
			if t.OwnerID == nil {
				continue
			}
			owner, ok := r.s.users[*t.OwnerID]
			if !ok || owner.ManagerID == nil || *owner.ManagerID != *filter.ScopeManagerID {
				continue
			}
		}
		cp := *t
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreationDate.After(matched[j].CreationDate)
	})
	total := len(matched)
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *fakeTasks) Search(ctx context.Context, query string, limit int) ([]ports.TaskSearchHit, error) {
	var hits []ports.TaskSearchHit
	for _, t := range r.s.tasks {
		if strings.Contains(t.Details, query) {
			hits = append(hits, ports.TaskSearchHit{ID: t.ID, Label: t.Details})
		}
	}
	return hits, nil
}

func (r *fakeTasks) FindOpenGeneral(ctx context.Context, accountID, exclude uuid.UUID) (*entities.Task, error) {
	for _, t := range r.s.tasks {
		if t.AccountID == accountID && t.Type == entities.TaskTypeGeneral && t.IsOpen() && t.ID != exclude {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTasks) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range r.s.tasks {
		if t.IsOpen() && t.DueDate != nil && t.DueDate.Before(now) {
			cp := *t
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTasks) CloseIfOpen(ctx context.Context, id uuid.UUID, closedAt time.Time) (bool, error) {
	task, ok := r.s.tasks[id]
	if !ok || !task.IsOpen() {
		return false, nil
	}
	reason := "OVERDUE"
	task.Close(closedAt, &reason)
	return true, nil
}

type fakeActivities struct{ s *fakeStore }

func (r *fakeActivities) Create(ctx context.Context, log *entities.ActivityLog) error {
	cp := *log
	r.s.logs[log.ID] = &cp
	return nil
}

func (r *fakeActivities) GetByID(ctx context.Context, id uuid.UUID) (*entities.ActivityLog, error) {
	log, ok := r.s.logs[id]
	if !ok {
		return nil, entities.NewNotFound("activity log", id.String())
	}
	cp := *log
	return &cp, nil
}

func (r *fakeActivities) ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]*entities.ActivityLog, error) {
	var out []*entities.ActivityLog
	for _, l := range r.s.logs {
		if l.TaskID == taskID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeActivities) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.s.logs[id]; !ok {
		return entities.NewNotFound("activity log", id.String())
	}
	delete(r.s.logs, id)
	return nil
}

type fakeOffers struct{ s *fakeStore }

func (r *fakeOffers) Create(ctx context.Context, offer *entities.Offer) error {
	cp := *offer
	r.s.offers[offer.ID] = &cp
	return nil
}

func (r *fakeOffers) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.Offer, error) {
	var out []*entities.Offer
	for _, o := range r.s.offers {
		if o.TaskID == taskID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOffers) UpdateStatusByTask(ctx context.Context, taskID uuid.UUID, status entities.OfferStatus) error {
	for _, o := range r.s.offers {
		if o.TaskID == taskID {
			o.Status = status
		}
	}
	return nil
}

func (r *fakeOffers) DeleteByActivityLog(ctx context.Context, activityLogID uuid.UUID) error {
	for id, o := range r.s.offers {
		if o.ActivityLogID != nil && *o.ActivityLogID == activityLogID {
			delete(r.s.offers, id)
		}
	}
	return nil
}

type fakeTaskLists struct{ s *fakeStore }

func (r *fakeTaskLists) Create(ctx context.Context, list *entities.TaskList) error {
	cp := *list
	r.s.lists[list.ID] = &cp
	return nil
}

func (r *fakeTaskLists) GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskList, error) {
	list, ok := r.s.lists[id]
	if !ok {
		return nil, entities.NewNotFound("task list", id.String())
	}
	cp := *list
	return &cp, nil
}

func (r *fakeTaskLists) Update(ctx context.Context, list *entities.TaskList) error {
	if _, ok := r.s.lists[list.ID]; !ok {
		return entities.NewNotFound("task list", list.ID.String())
	}
	cp := *list
	r.s.lists[list.ID] = &cp
	return nil
}

func (r *fakeTaskLists) List(ctx context.Context, filter ports.TaskListFilter) ([]*entities.TaskList, error) {
	var out []*entities.TaskList
	for _, l := range r.s.lists {
		if filter.Tag != nil && l.Tag != *filter.Tag {
			continue
		}
		if filter.IsActive != nil && l.IsActive != *filter.IsActive {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

type fakeUsers struct{ s *fakeStore }

func (r *fakeUsers) Create(ctx context.Context, user *entities.User) error {
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, entities.NewNotFound("user", id.String())
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUsers) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entities.NewNotFound("user", email)
}

func (r *fakeUsers) Update(ctx context.Context, user *entities.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return entities.NewNotFound("user", user.ID.String())
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *fakeUsers) List(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	var out []*entities.User
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.ManagerID != nil && (u.ManagerID == nil || *u.ManagerID != *filter.ManagerID) {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

type fakeNotifications struct{ s *fakeStore }

func (r *fakeNotifications) Create(ctx context.Context, n *entities.Notification) error {
	cp := *n
	r.s.notifications = append(r.s.notifications, &cp)
	return nil
}

func (r *fakeNotifications) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error) {
	var out []*entities.Notification
	for _, n := range r.s.notifications {
		if n.ToUserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotifications) MarkRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) (*entities.Notification, error) {
	for _, n := range r.s.notifications {
		if n.ID == id && n.ToUserID == userID {
			n.ReadAt = &readAt
			cp := *n
			return &cp, nil
		}
	}
	return nil, entities.NewNotFound("notification", id.String())
}

type fakeContacts struct{ s *fakeStore }

func (r *fakeContacts) Create(ctx context.Context, tc *entities.TaskContact) error {
	cp := *tc
	r.s.contacts[tc.ID] = &cp
	return nil
}

func (r *fakeContacts) GetByID(ctx context.Context, id uuid.UUID) (*entities.TaskContact, error) {
	tc, ok := r.s.contacts[id]
	if !ok {
		return nil, entities.NewNotFound("task contact", id.String())
	}
	cp := *tc
	return &cp, nil
}

func (r *fakeContacts) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.TaskContact, error) {
	var out []*entities.TaskContact
	for _, tc := range r.s.contacts {
		if tc.TaskID == taskID {
			cp := *tc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeContacts) Update(ctx context.Context, tc *entities.TaskContact) error {
	if _, ok := r.s.contacts[tc.ID]; !ok {
		return entities.NewNotFound("task contact", tc.ID.String())
	}
	cp := *tc
	r.s.contacts[tc.ID] = &cp
	return nil
}

func (r *fakeContacts) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.s.contacts[id]; !ok {
		return entities.NewNotFound("task contact", id.String())
	}
	delete(r.s.contacts, id)
	return nil
}

func (r *fakeContacts) ClearPrimary(ctx context.Context, taskID uuid.UUID) error {
	for _, tc := range r.s.contacts {
		if tc.TaskID == taskID {
			tc.IsPrimary = false
		}
	}
	return nil
}

type fakeAccounts struct{ s *fakeStore }

func (a *fakeAccounts) AppendHistory(ctx context.Context, accountID uuid.UUID, typ entities.HistoryType, summary string) error {
	a.s.history = append(a.s.history, fakeHistoryEntry{accountID: accountID, typ: typ, summary: summary})
	return nil
}

func (a *fakeAccounts) OpenTaskCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	count := 0
	for _, t := range a.s.tasks {
		if t.AccountID == accountID && t.IsOpen() {
			count++
		}
	}
	return count, nil
}

// Test fixture helpers

func seedUser(s *fakeStore, role entities.Role, managerID *uuid.UUID) *entities.User {
	u := &entities.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		Name:      "Test User",
		Role:      role,
		ManagerID: managerID,
		IsActive:  true,
	}
	s.users[u.ID] = u
	return u
}

func seedList(s *fakeStore, tag entities.TaskListTag) *entities.TaskList {
	l := &entities.TaskList{
		ID:       uuid.New(),
		Name:     "Test List",
		Tag:      tag,
		IsActive: true,
	}
	s.lists[l.ID] = l
	return l
}

func seedTask(s *fakeStore, listID, accountID uuid.UUID, taskType entities.TaskType, ownerID *uuid.UUID) *entities.Task {
	t := &entities.Task{
		ID:            uuid.New(),
		TaskListID:    listID,
		AccountID:     accountID,
		OwnerID:       ownerID,
		CreatedByID:   uuid.New(),
		Category:      entities.CategoryIstanbulCore,
		Type:          taskType,
		Priority:      entities.PriorityMedium,
		AccountType:   entities.AccountKey,
		Source:        entities.SourceFresh,
		MainCategory:  "restaurants",
		SubCategory:   "kebab",
		Details:       "test task",
		CreationDate:  time.Now().UTC(),
		Status:        entities.StatusNotHot,
		GeneralStatus: entities.GeneralOpen,
	}
	s.tasks[t.ID] = t
	return t
}
