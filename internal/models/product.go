package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is an owned item that maintenance tasks attach to.
//
// LastOverallMaintenance and NextOverallMaintenance are derived views over
// the product's tasks: the latest last_maintenance among completed tasks
// and the earliest next_maintenance among non-completed ones. They are
// recomputed on every read and never stored, so they cannot drift.
type Product struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID   `bson:"user_id" json:"userId"`
	Name      string               `bson:"name" json:"name"`
	Slug      string               `bson:"slug" json:"slug"`
	TaskIDs   []primitive.ObjectID `bson:"tasks" json:"tasks"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updatedAt"`

	LastOverallMaintenance *time.Time `bson:"-" json:"lastOverallMaintenance,omitempty"`
	NextOverallMaintenance *time.Time `bson:"-" json:"nextOverallMaintenance,omitempty"`
}

// CreateProductRequest is the command for registering a new product.
type CreateProductRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// UpdateProductRequest renames a product; the slug is regenerated.
type UpdateProductRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=50"`
}
