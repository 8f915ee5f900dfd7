package schedule

import (
	"time"

	"upkeep/internal/models"
)

// DayKey is the ISO date format used to key events by calendar day.
const DayKey = "2006-01-02"

// EventOf projects an active task onto its due date. Start and End both
// carry the next maintenance date; multi-day events do not exist here.
func EventOf(t *models.Task, product models.ProductRef) models.Event {
	due := Day(t.NextMaintenance)
	return models.Event{
		ID:      t.ID.Hex(),
		Title:   t.TaskName,
		Start:   due,
		End:     due,
		Product: product,
	}
}

// GroupByDay buckets events by their normalized calendar date. Every event
// on a day is included; trimming to "N visible" is up to the caller.
func GroupByDay(events []models.Event) map[string][]models.Event {
	grouped := make(map[string][]models.Event, len(events))
	for _, ev := range events {
		key := Day(ev.Start).Format(DayKey)
		grouped[key] = append(grouped[key], ev)
	}
	return grouped
}

// MonthGrid returns the 42 consecutive dates of a fixed 6x7 month view:
// six full weeks starting from the Sunday on or before the first day of
// anchor's month. Independent of any task data.
func MonthGrid(anchor time.Time) []time.Time {
	first := Day(anchor)
	first = time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	days := make([]time.Time, 42)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}
