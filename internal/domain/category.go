package domain

import "time"

// Category classifies tickets at the top level.
type Category struct {
	ID            int64
	Name          string
	Description   *string
	CreatedAt     time.Time
	Subcategories []Subcategory
}

// Subcategory refines a category.
type Subcategory struct {
	ID         int64
	CategoryID int64
	Name       string
	CreatedAt  time.Time
}

// AssignmentGroup is a triage queue tickets can be routed to.
type AssignmentGroup struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
}
