package services

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"upkeep/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestBuildTaskRecurring(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	now := date(2024, time.January, 1)

	req := &models.CreateTaskRequest{
		TaskName:        "Oil change",
		IsRecurring:     true,
		RecurringType:   models.RecurByLastMaintenance,
		FrequencyDays:   30,
		LastMaintenance: ptr(date(2024, time.January, 1)),
	}

	task, err := buildTask(userID, productID, req, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.NextMaintenance.Equal(date(2024, time.January, 31)) {
		t.Errorf("next = %v, want 2024-01-31", task.NextMaintenance)
	}
	if task.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", task.Status)
	}
	if task.Completed {
		t.Error("new task must not be terminal")
	}
	if task.UserID != userID || task.ProductID != productID {
		t.Error("ownership fields not set")
	}
}

func TestBuildTaskDefaultsLastMaintenanceToToday(t *testing.T) {
	now := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
	req := &models.CreateTaskRequest{
		TaskName:      "Filter swap",
		IsRecurring:   true,
		RecurringType: models.RecurByLastMaintenance,
		FrequencyDays: 7,
	}

	task, err := buildTask(primitive.NewObjectID(), primitive.NewObjectID(), req, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.LastMaintenance.Equal(date(2024, time.March, 5)) {
		t.Errorf("last = %v, want today at UTC midnight", task.LastMaintenance)
	}
	if !task.NextMaintenance.Equal(date(2024, time.March, 12)) {
		t.Errorf("next = %v, want 2024-03-12", task.NextMaintenance)
	}
}

func TestBuildTaskOneTimeWindow(t *testing.T) {
	now := date(2024, time.March, 1)
	req := &models.CreateTaskRequest{
		TaskName: "Inspection",
		MaintenanceWindow: &models.MaintenanceWindow{
			StartDate: date(2024, time.April, 1),
			EndDate:   date(2024, time.April, 15),
		},
	}

	task, err := buildTask(primitive.NewObjectID(), primitive.NewObjectID(), req, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.NextMaintenance.Equal(date(2024, time.April, 15)) {
		t.Errorf("next = %v, want window end", task.NextMaintenance)
	}
	if task.Status != models.StatusInactive {
		t.Errorf("status = %q, want inactive before window opens", task.Status)
	}
}

func TestBuildTaskRejections(t *testing.T) {
	now := date(2024, time.March, 1)

	cases := []struct {
		name string
		req  models.CreateTaskRequest
	}{
		{
			name: "recurring without type",
			req:  models.CreateTaskRequest{TaskName: "x", IsRecurring: true, FrequencyDays: 7},
		},
		{
			name: "recurring by last maintenance without frequency",
			req:  models.CreateTaskRequest{TaskName: "x", IsRecurring: true, RecurringType: models.RecurByLastMaintenance},
		},
		{
			name: "one-time without window",
			req:  models.CreateTaskRequest{TaskName: "x"},
		},
		{
			name: "window end before start",
			req: models.CreateTaskRequest{TaskName: "x", MaintenanceWindow: &models.MaintenanceWindow{
				StartDate: date(2024, time.April, 15),
				EndDate:   date(2024, time.April, 1),
			}},
		},
		{
			name: "last maintenance in the past",
			req: models.CreateTaskRequest{
				TaskName: "x", IsRecurring: true, RecurringType: models.RecurByLastMaintenance,
				FrequencyDays: 7, LastMaintenance: ptr(date(2024, time.February, 28)),
			},
		},
		{
			name: "window more than two years out",
			req: models.CreateTaskRequest{TaskName: "x", MaintenanceWindow: &models.MaintenanceWindow{
				StartDate: date(2026, time.March, 2),
				EndDate:   date(2026, time.March, 10),
			}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildTask(primitive.NewObjectID(), primitive.NewObjectID(), &tc.req, now)
			if !models.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuildTaskAcceptsHorizonBoundary(t *testing.T) {
	now := date(2024, time.March, 1)
	req := &models.CreateTaskRequest{
		TaskName: "Boundary",
		MaintenanceWindow: &models.MaintenanceWindow{
			StartDate: date(2024, time.March, 1),
			EndDate:   date(2026, time.March, 1),
		},
	}
	if _, err := buildTask(primitive.NewObjectID(), primitive.NewObjectID(), req, now); err != nil {
		t.Fatalf("dates exactly on the range bounds must pass: %v", err)
	}
}

func TestApplyPatchMergesOnlyProvidedFields(t *testing.T) {
	task := models.Task{
		TaskName:      "Old name",
		Description:   "old",
		IsRecurring:   true,
		RecurringType: models.RecurByLastMaintenance,
		FrequencyDays: 30,
	}

	err := applyPatch(&task, &models.UpdateTaskRequest{
		TaskName:      ptr("New name"),
		FrequencyDays: ptr(14),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.TaskName != "New name" || task.FrequencyDays != 14 {
		t.Errorf("patched fields not applied: %+v", task)
	}
	if task.Description != "old" || !task.IsRecurring {
		t.Errorf("untouched fields changed: %+v", task)
	}
}

func TestApplyPatchRejectsEmptyName(t *testing.T) {
	task := models.Task{TaskName: "Keep"}
	err := applyPatch(&task, &models.UpdateTaskRequest{TaskName: ptr("")})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if task.TaskName != "Keep" {
		t.Error("task mutated despite rejection")
	}
}

func TestApplyUpdateRecomputesNextFromPatchedFrequency(t *testing.T) {
	task := models.Task{
		TaskName:        "Oil change",
		IsRecurring:     true,
		RecurringType:   models.RecurByLastMaintenance,
		FrequencyDays:   30,
		LastMaintenance: date(2024, time.January, 1),
		NextMaintenance: date(2024, time.January, 31),
	}

	if err := applyUpdate(&task, &models.UpdateTaskRequest{FrequencyDays: ptr(7)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.NextMaintenance.Equal(date(2024, time.January, 8)) {
		t.Errorf("next = %v, want 2024-01-08", task.NextMaintenance)
	}
}

func TestApplyUpdateRejectsLastMaintenancePastWindowEnd(t *testing.T) {
	// Recording a maintenance date beyond the window's end would persist
	// next < last and the task would derive overdue right away.
	task := models.Task{
		TaskName: "Inspection",
		MaintenanceWindow: &models.MaintenanceWindow{
			StartDate: date(2024, time.May, 1),
			EndDate:   date(2024, time.May, 15),
		},
		LastMaintenance: date(2024, time.May, 1),
		NextMaintenance: date(2024, time.May, 15),
	}

	err := applyUpdate(&task, &models.UpdateTaskRequest{
		LastMaintenance: ptr(date(2024, time.June, 1)),
	})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyUpdateKeepsNextAtOrAfterLast(t *testing.T) {
	task := models.Task{
		TaskName: "Inspection",
		MaintenanceWindow: &models.MaintenanceWindow{
			StartDate: date(2024, time.May, 1),
			EndDate:   date(2024, time.May, 15),
		},
		LastMaintenance: date(2024, time.May, 1),
		NextMaintenance: date(2024, time.May, 15),
	}

	// Moving last maintenance inside the window is fine.
	err := applyUpdate(&task, &models.UpdateTaskRequest{
		LastMaintenance: ptr(date(2024, time.May, 10)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.NextMaintenance.Before(task.LastMaintenance) {
		t.Errorf("next %v precedes last %v", task.NextMaintenance, task.LastMaintenance)
	}
}

func TestApplyUpdateRejectsRecurringWithoutType(t *testing.T) {
	task := models.Task{
		TaskName: "Inspection",
		MaintenanceWindow: &models.MaintenanceWindow{
			StartDate: date(2024, time.May, 1),
			EndDate:   date(2024, time.May, 15),
		},
		LastMaintenance: date(2024, time.May, 1),
		NextMaintenance: date(2024, time.May, 15),
	}

	err := applyUpdate(&task, &models.UpdateTaskRequest{IsRecurring: ptr(true)})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTouchesRecurrence(t *testing.T) {
	if touchesRecurrence(&models.UpdateTaskRequest{TaskName: ptr("rename"), Description: ptr("d")}) {
		t.Error("rename/description must not trigger a recompute")
	}
	if !touchesRecurrence(&models.UpdateTaskRequest{FrequencyDays: ptr(7)}) {
		t.Error("frequency change must trigger a recompute")
	}
	if !touchesRecurrence(&models.UpdateTaskRequest{MaintenanceWindow: &models.MaintenanceWindow{}}) {
		t.Error("window change must trigger a recompute")
	}
}

func TestStatusQueryMirrorsDeriver(t *testing.T) {
	now := date(2024, time.May, 10)
	today := date(2024, time.May, 10)
	windowOpen := bson.A{
		bson.M{"maintenance_window": bson.M{"$exists": false}},
		bson.M{"maintenance_window.start_date": bson.M{"$lte": today}},
	}

	cases := []struct {
		status models.TaskStatus
		want   bson.M
	}{
		{models.StatusCompleted, bson.M{"completed": true}},
		{models.StatusInactive, bson.M{
			"completed":                     false,
			"maintenance_window.start_date": bson.M{"$gt": today},
		}},
		{models.StatusOverdue, bson.M{
			"completed":        false,
			"next_maintenance": bson.M{"$lt": today},
			"$or":              windowOpen,
		}},
		{models.StatusPending, bson.M{
			"completed":        false,
			"next_maintenance": bson.M{"$gte": today},
			"$or":              windowOpen,
		}},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			got, err := statusQuery(tc.status, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("statusQuery(%q) = %#v, want %#v", tc.status, got, tc.want)
			}
		})
	}
}

func TestStatusQueryRejectsUnknownStatus(t *testing.T) {
	_, err := statusQuery("healthy", date(2024, time.May, 10))
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildTaskQueryEscapesSearch(t *testing.T) {
	userID := primitive.NewObjectID()
	query, err := buildTaskQuery(userID, models.TaskListFilter{Search: "a.c(x)"}, date(2024, time.May, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	re, ok := query["task_name"].(primitive.Regex)
	if !ok {
		t.Fatalf("task_name clause = %#v, want a regex", query["task_name"])
	}
	if re.Pattern != `a\.c\(x\)` {
		t.Errorf("pattern = %q, metacharacters not escaped", re.Pattern)
	}
	if re.Options != "i" {
		t.Errorf("options = %q, want case-insensitive", re.Options)
	}
	if query["user_id"] != userID {
		t.Error("query not scoped to owner")
	}
}

func TestBuildTaskQueryUnknownProductID(t *testing.T) {
	_, err := buildTaskQuery(primitive.NewObjectID(), models.TaskListFilter{ProductID: "not-an-oid"}, time.Now())
	if !models.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
		{100, 10, 10},
		{7, 3, 3},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
