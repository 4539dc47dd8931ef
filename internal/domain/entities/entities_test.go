package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		minimum Role
		want    bool
	}{
		{"salesperson below team leader", RoleSalesperson, RoleTeamLeader, false},
		{"team leader at team leader", RoleTeamLeader, RoleTeamLeader, true},
		{"manager above team leader", RoleManager, RoleTeamLeader, true},
		{"admin above everyone", RoleAdmin, RoleManager, true},
		{"team leader below admin", RoleTeamLeader, RoleAdmin, false},
		{"invalid role below all", Role("INTERN"), RoleSalesperson, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.AtLeast(tt.minimum); got != tt.want {
				t.Errorf("AtLeast(%s) = %v, want %v", tt.minimum, got, tt.want)
			}
		})
	}
}

func TestTaskStatusClosable(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{StatusHot, false},
		{StatusNotHot, false},
		{StatusDeal, true},
		{StatusCold, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Closable(); got != tt.want {
				t.Errorf("Closable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReasonIsValid(t *testing.T) {
	valid := []Reason{
		ReasonYetkiliyeUlasildi, ReasonYetkiliyeUlasilamadi, ReasonIsletmeyeUlasilamadi,
		ReasonTeklifVerildi, ReasonKarsiTeklif, ReasonTeklifKabul, ReasonTeklifRed,
		ReasonIsletmeCalismakIstemiyor, ReasonGrupanyaCalismakIstemiyor, ReasonTekrarAranacak,
	}
	for _, r := range valid {
		if !r.IsValid() {
			t.Errorf("IsValid() = false for %s", r)
		}
	}

	for _, r := range []Reason{"", "CLOSED", "teklif_verildi"} {
		if r.IsValid() {
			t.Errorf("IsValid() = true for %q", r)
		}
	}
}

func TestTaskTypeMatchesTag(t *testing.T) {
	if !TaskTypeGeneral.MatchesTag(TagGeneral) {
		t.Error("GENERAL type should match GENERAL tag")
	}
	if TaskTypeGeneral.MatchesTag(TagProject) {
		t.Error("GENERAL type should not match PROJECT tag")
	}
	if !TaskTypeProject.MatchesTag(TagProject) {
		t.Error("PROJECT type should match PROJECT tag")
	}
}

func TestTaskAssign(t *testing.T) {
	task := &Task{ID: uuid.New()}
	ownerID := uuid.New()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	task.Assign(ownerID, 5, now)

	if task.OwnerID == nil || *task.OwnerID != ownerID {
		t.Fatal("owner not set")
	}
	if task.AssignmentDate == nil || !task.AssignmentDate.Equal(now) {
		t.Error("assignment date not set to now")
	}
	if task.DurationDays == nil || *task.DurationDays != 5 {
		t.Error("duration not recorded")
	}
	wantDue := now.Add(5 * 24 * time.Hour)
	if task.DueDate == nil || !task.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", task.DueDate, wantDue)
	}

	// Reassignment overwrites the window.
	later := now.Add(48 * time.Hour)
	next := uuid.New()
	task.Assign(next, 3, later)
	if *task.OwnerID != next {
		t.Error("reassignment did not overwrite owner")
	}
	if !task.DueDate.Equal(later.Add(3 * 24 * time.Hour)) {
		t.Error("reassignment did not recompute due date")
	}
}

func TestTaskClose(t *testing.T) {
	task := &Task{ID: uuid.New(), GeneralStatus: GeneralOpen}
	if !task.IsOpen() {
		t.Fatal("new task should be open")
	}

	now := time.Now().UTC()
	reason := "deal signed"
	task.Close(now, &reason)

	if task.IsOpen() {
		t.Error("closed task reports open")
	}
	if task.ClosedAt == nil || !task.ClosedAt.Equal(now) {
		t.Error("closed_at not recorded")
	}
	if task.ClosedReason == nil || *task.ClosedReason != reason {
		t.Error("closed_reason not recorded")
	}
}

func TestNotificationIsRead(t *testing.T) {
	n := &Notification{ID: uuid.New()}
	if n.IsRead() {
		t.Error("unread notification reports read")
	}
	now := time.Now().UTC()
	n.ReadAt = &now
	if !n.IsRead() {
		t.Error("read notification reports unread")
	}
}
