package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is the derived status of a task. The stored value is only a
// cache for query filtering; the schedule package recomputes it on read.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusOverdue   TaskStatus = "overdue"
	StatusInactive  TaskStatus = "inactive"
)

// RecurringType selects how the next maintenance date is computed.
type RecurringType string

const (
	RecurByLastMaintenance RecurringType = "byLastMaintenance"
	RecurByWindow          RecurringType = "byWindow"
)

// MaintenanceWindow is the start/end range for window-recurring and
// one-time tasks. EndDate must not precede StartDate.
type MaintenanceWindow struct {
	StartDate time.Time `bson:"start_date" json:"startDate"`
	EndDate   time.Time `bson:"end_date" json:"endDate"`
}

// Task is a maintenance obligation attached to a product.
//
// Completed is the terminal flag: it is only ever set when a windowed or
// one-time task is completed. Tasks recurring by last maintenance restart
// their cycle on completion and never become terminal.
type Task struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID         primitive.ObjectID `bson:"product_id" json:"productId"`
	UserID            primitive.ObjectID `bson:"user_id" json:"userId"`
	TaskName          string             `bson:"task_name" json:"taskName"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	IsRecurring       bool               `bson:"is_recurring" json:"isRecurring"`
	RecurringType     RecurringType      `bson:"recurring_type,omitempty" json:"recurringType,omitempty"`
	FrequencyDays     int                `bson:"frequency_days,omitempty" json:"frequency,omitempty"`
	LastMaintenance   time.Time          `bson:"last_maintenance" json:"lastMaintenance"`
	NextMaintenance   time.Time          `bson:"next_maintenance" json:"nextMaintenance"`
	MaintenanceWindow *MaintenanceWindow `bson:"maintenance_window,omitempty" json:"maintenanceWindow,omitempty"`
	Completed         bool               `bson:"completed" json:"completed"`
	Status            TaskStatus         `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CreateTaskRequest is the command for creating a new task on a product.
// Dates are ISO-8601; omitted LastMaintenance defaults to today (UTC).
type CreateTaskRequest struct {
	TaskName          string             `json:"taskName" validate:"required,max=25"`
	Description       string             `json:"description" validate:"max=200"`
	IsRecurring       bool               `json:"isRecurring"`
	RecurringType     RecurringType      `json:"recurringType" validate:"omitempty,oneof=byLastMaintenance byWindow"`
	FrequencyDays     int                `json:"frequency" validate:"omitempty,min=1"`
	LastMaintenance   *time.Time         `json:"lastMaintenance,omitempty"`
	MaintenanceWindow *MaintenanceWindow `json:"maintenanceWindow,omitempty"`
}

// UpdateTaskRequest is a partial patch; nil fields are left untouched.
type UpdateTaskRequest struct {
	TaskName          *string            `json:"taskName,omitempty" validate:"omitempty,max=25"`
	Description       *string            `json:"description,omitempty" validate:"omitempty,max=200"`
	IsRecurring       *bool              `json:"isRecurring,omitempty"`
	RecurringType     *RecurringType     `json:"recurringType,omitempty" validate:"omitempty,oneof=byLastMaintenance byWindow"`
	FrequencyDays     *int               `json:"frequency,omitempty" validate:"omitempty,min=1"`
	LastMaintenance   *time.Time         `json:"lastMaintenance,omitempty"`
	MaintenanceWindow *MaintenanceWindow `json:"maintenanceWindow,omitempty"`
}

// PostponeTaskRequest pushes a task's next maintenance date out by whole days.
type PostponeTaskRequest struct {
	Days int `json:"days" validate:"required,min=1"`
}

// TaskListFilter selects and pages tasks for one owner.
type TaskListFilter struct {
	ProductID string
	Status    TaskStatus
	Search    string
	Page      int64
	Limit     int64
}

// TaskListResponse holds one page of tasks and pagination metadata.
type TaskListResponse struct {
	Items      []Task `json:"items"`
	Total      int64  `json:"total"`
	Page       int64  `json:"page"`
	TotalPages int64  `json:"totalPages"`
}
