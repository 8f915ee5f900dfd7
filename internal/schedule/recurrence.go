// Package schedule holds the pure scheduling core: recurrence arithmetic,
// status derivation and calendar date utilities. Nothing in this package
// touches storage or the wall clock; callers pass "now" in explicitly.
package schedule

import (
	"time"

	"upkeep/internal/models"
)

// Rule is the recurrence configuration of a task, reduced to exactly one
// of two shapes. EveryNDays restarts the cycle from the last maintenance;
// Window describes window-recurring and one-time tasks, which are terminal
// once completed.
type Rule interface {
	isRule()
}

// EveryNDays recurs a fixed number of whole days after the last maintenance.
type EveryNDays struct {
	Days int
}

// Window is a single start/end maintenance window.
type Window struct {
	Start time.Time
	End   time.Time
}

func (EveryNDays) isRule() {}
func (Window) isRule()     {}

// Day normalizes t to UTC midnight. All scheduling arithmetic and
// comparisons happen at this granularity.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RuleOf maps a task's stored recurrence fields onto a Rule, rejecting the
// inconsistent flag combinations the flat document shape allows.
func RuleOf(t *models.Task) (Rule, error) {
	if t.IsRecurring && t.RecurringType == models.RecurByLastMaintenance {
		if t.FrequencyDays < 1 {
			return nil, models.NewValidationError("frequency", "must be a positive number of days")
		}
		return EveryNDays{Days: t.FrequencyDays}, nil
	}
	if t.MaintenanceWindow == nil {
		return nil, models.NewValidationError("maintenanceWindow", "required for window-based and one-time tasks")
	}
	w := t.MaintenanceWindow
	if w.EndDate.Before(w.StartDate) {
		return nil, models.NewValidationError("maintenanceWindow", "endDate must not precede startDate")
	}
	return Window{Start: Day(w.StartDate), End: Day(w.EndDate)}, nil
}

// NextOnCreate computes the initial next maintenance date for a task.
func NextOnCreate(lastMaintenance time.Time, r Rule) (time.Time, error) {
	switch v := r.(type) {
	case EveryNDays:
		if v.Days < 1 {
			return time.Time{}, models.NewValidationError("frequency", "must be a positive number of days")
		}
		return Day(lastMaintenance).AddDate(0, 0, v.Days), nil
	case Window:
		return Day(v.End), nil
	}
	return time.Time{}, models.NewValidationError("recurringType", "unknown recurrence rule")
}

// CompletionResult is the date/terminal outcome of completing a task.
type CompletionResult struct {
	LastMaintenance time.Time
	NextMaintenance time.Time
	Terminal        bool
}

// OnComplete applies a completion at now. Tasks recurring every N days
// restart their cycle; windowed and one-time tasks become terminal. The
// next date of a terminal result is clamped up to the last maintenance so
// next >= last keeps holding even when an overdue window is closed late.
func OnComplete(r Rule, currentNext, now time.Time) CompletionResult {
	today := Day(now)
	switch v := r.(type) {
	case EveryNDays:
		return CompletionResult{
			LastMaintenance: today,
			NextMaintenance: today.AddDate(0, 0, v.Days),
		}
	case Window:
		next := Day(currentNext)
		if next.Before(today) {
			next = today
		}
		return CompletionResult{
			LastMaintenance: today,
			NextMaintenance: next,
			Terminal:        true,
		}
	}
	return CompletionResult{LastMaintenance: today, NextMaintenance: Day(currentNext)}
}

// Postpone pushes the next maintenance date out by whole days. Postponement
// never touches the last maintenance date or the recurrence classification.
func Postpone(next time.Time, days int) (time.Time, error) {
	if days < 1 {
		return time.Time{}, models.NewValidationError("days", "must be at least 1")
	}
	return Day(next).AddDate(0, 0, days), nil
}
