package schedule

import (
	"time"

	"upkeep/internal/models"
)

// Derive computes the status of a task at now. This is the single source
// of truth; the stored status field is only a query-filter cache and is
// overwritten with this result before a task leaves the service layer.
//
// First match wins:
//  1. terminal completion -> completed
//  2. window not yet open -> inactive
//  3. due date passed     -> overdue
//  4. otherwise           -> pending
//
// Comparisons are at day granularity, so a task due today stays pending
// until tomorrow. Pure and safe for concurrent use.
func Derive(t *models.Task, now time.Time) models.TaskStatus {
	today := Day(now)

	if t.Completed {
		return models.StatusCompleted
	}
	if t.MaintenanceWindow != nil && today.Before(Day(t.MaintenanceWindow.StartDate)) {
		return models.StatusInactive
	}
	if today.After(Day(t.NextMaintenance)) {
		return models.StatusOverdue
	}
	return models.StatusPending
}

// Reconcile overwrites the cached status with the derived one and reports
// whether the stored value had drifted.
func Reconcile(t *models.Task, now time.Time) bool {
	derived := Derive(t, now)
	drifted := t.Status != derived
	t.Status = derived
	return drifted
}
