package schedule

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"upkeep/internal/models"
)

func TestMonthGrid(t *testing.T) {
	cases := []struct {
		name      string
		anchor    time.Time
		wantFirst time.Time
		wantLast  time.Time
	}{
		{
			// May 2024 starts on a Wednesday.
			name:      "mid-month anchor",
			anchor:    date(2024, time.May, 17),
			wantFirst: date(2024, time.April, 28),
			wantLast:  date(2024, time.June, 8),
		},
		{
			// September 2024 starts on a Sunday: the grid starts on the 1st.
			name:      "month starting on sunday",
			anchor:    date(2024, time.September, 1),
			wantFirst: date(2024, time.September, 1),
			wantLast:  date(2024, time.October, 12),
		},
		{
			// February in a non-leap year, anchored on the 28th.
			name:      "short month",
			anchor:    date(2023, time.February, 28),
			wantFirst: date(2023, time.January, 29),
			wantLast:  date(2023, time.March, 11),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			days := MonthGrid(tc.anchor)
			if len(days) != 42 {
				t.Fatalf("len = %d, want 42", len(days))
			}
			if days[0].Weekday() != time.Sunday {
				t.Errorf("grid starts on %v, want Sunday", days[0].Weekday())
			}
			if !days[0].Equal(tc.wantFirst) {
				t.Errorf("first = %v, want %v", days[0], tc.wantFirst)
			}
			if !days[41].Equal(tc.wantLast) {
				t.Errorf("last = %v, want %v", days[41], tc.wantLast)
			}
			for i := 1; i < len(days); i++ {
				if want := days[i-1].AddDate(0, 0, 1); !days[i].Equal(want) {
					t.Fatalf("days[%d] = %v, not consecutive after %v", i, days[i], days[i-1])
				}
			}
		})
	}
}

func TestGroupByDay(t *testing.T) {
	events := []models.Event{
		{ID: "a", Start: date(2024, time.May, 1)},
		{ID: "b", Start: time.Date(2024, time.May, 1, 18, 30, 0, 0, time.UTC)},
		{ID: "c", Start: date(2024, time.May, 3)},
	}

	grouped := GroupByDay(events)
	if len(grouped) != 2 {
		t.Fatalf("groups = %d, want 2", len(grouped))
	}
	if got := len(grouped["2024-05-01"]); got != 2 {
		t.Errorf("2024-05-01 has %d events, want 2", got)
	}
	if got := len(grouped["2024-05-03"]); got != 1 {
		t.Errorf("2024-05-03 has %d events, want 1", got)
	}
}

func TestEventOf(t *testing.T) {
	task := models.Task{
		ID:              primitive.NewObjectID(),
		TaskName:        "Oil change",
		NextMaintenance: date(2024, time.May, 8),
	}
	ref := models.ProductRef{ID: "p1", Name: "Car"}

	ev := EventOf(&task, ref)
	if ev.ID != task.ID.Hex() {
		t.Errorf("id = %q, want task id", ev.ID)
	}
	if ev.Title != "Oil change" {
		t.Errorf("title = %q", ev.Title)
	}
	if !ev.Start.Equal(ev.End) || !ev.Start.Equal(date(2024, time.May, 8)) {
		t.Errorf("start/end = %v/%v, want both at due date", ev.Start, ev.End)
	}
	if ev.Product != ref {
		t.Errorf("product = %+v, want %+v", ev.Product, ref)
	}
}
