package models

import "time"

// ProductRef is the product summary embedded in a calendar event.
type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is a transient projection of an active task onto its due date.
// Events are never persisted; Start and End both carry the task's
// next maintenance date.
type Event struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Start   time.Time  `json:"start"`
	End     time.Time  `json:"end"`
	Product ProductRef `json:"product"`
}

// MonthResponse is the payload for the month calendar view: a fixed 6x7
// grid of dates plus the user's events keyed by ISO day.
type MonthResponse struct {
	Days        []time.Time        `json:"days"`
	EventsByDay map[string][]Event `json:"eventsByDay"`
}
