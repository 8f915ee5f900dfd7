package schedule

import (
	"testing"
	"time"

	"upkeep/internal/models"
)

func TestDerive(t *testing.T) {
	window := &models.MaintenanceWindow{
		StartDate: date(2024, time.May, 10),
		EndDate:   date(2024, time.May, 20),
	}

	cases := []struct {
		name string
		task models.Task
		now  time.Time
		want models.TaskStatus
	}{
		{
			name: "terminal completion wins over everything",
			task: models.Task{Completed: true, NextMaintenance: date(2024, time.January, 1), MaintenanceWindow: window},
			now:  date(2024, time.June, 1),
			want: models.StatusCompleted,
		},
		{
			name: "window not yet open",
			task: models.Task{MaintenanceWindow: window, NextMaintenance: window.EndDate},
			now:  date(2024, time.May, 9),
			want: models.StatusInactive,
		},
		{
			name: "window opens on its start day",
			task: models.Task{MaintenanceWindow: window, NextMaintenance: window.EndDate},
			now:  date(2024, time.May, 10),
			want: models.StatusPending,
		},
		{
			name: "due date passed without completion",
			task: models.Task{NextMaintenance: date(2024, time.May, 1)},
			now:  date(2024, time.May, 2),
			want: models.StatusOverdue,
		},
		{
			name: "due today is still pending",
			task: models.Task{NextMaintenance: date(2024, time.May, 1)},
			now:  date(2024, time.May, 1),
			want: models.StatusPending,
		},
		{
			name: "recurring task due in the future",
			task: models.Task{IsRecurring: true, RecurringType: models.RecurByLastMaintenance, FrequencyDays: 30, NextMaintenance: date(2024, time.May, 31)},
			now:  date(2024, time.May, 5),
			want: models.StatusPending,
		},
		{
			name: "time of day does not matter",
			task: models.Task{NextMaintenance: date(2024, time.May, 1)},
			now:  time.Date(2024, time.May, 1, 23, 59, 59, 0, time.UTC),
			want: models.StatusPending,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Derive(&tc.task, tc.now); got != tc.want {
				t.Errorf("Derive = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	task := models.Task{
		NextMaintenance: date(2024, time.May, 1),
		MaintenanceWindow: &models.MaintenanceWindow{
			StartDate: date(2024, time.April, 1),
			EndDate:   date(2024, time.May, 1),
		},
	}
	now := date(2024, time.May, 3)

	first := Derive(&task, now)
	for i := 0; i < 10; i++ {
		if got := Derive(&task, now); got != first {
			t.Fatalf("call %d: Derive = %q, previously %q", i, got, first)
		}
	}
	if first != models.StatusOverdue {
		t.Errorf("Derive = %q, want %q", first, models.StatusOverdue)
	}
}

func TestReconcileOverwritesStaleCache(t *testing.T) {
	task := models.Task{
		Status:          models.StatusPending,
		NextMaintenance: date(2024, time.May, 1),
	}

	drifted := Reconcile(&task, date(2024, time.May, 10))
	if !drifted {
		t.Fatal("expected drift to be reported")
	}
	if task.Status != models.StatusOverdue {
		t.Errorf("status = %q, want %q", task.Status, models.StatusOverdue)
	}

	if Reconcile(&task, date(2024, time.May, 10)) {
		t.Error("second reconcile must not report drift")
	}
}
