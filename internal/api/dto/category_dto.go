package dto

import "time"

// CategoryRequest payload for category create/update.
type CategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// SubcategoryRequest payload.
type SubcategoryRequest struct {
	Name string `json:"name"`
}

// SubcategoryResponse view.
type SubcategoryResponse struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// CategoryResponse view with nested subcategories.
type CategoryResponse struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Description   *string               `json:"description"`
	CreatedAt     time.Time             `json:"created_at"`
	Subcategories []SubcategoryResponse `json:"subcategories"`
}

// AssignmentGroupRequest payload.
type AssignmentGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// AssignmentGroupResponse view.
type AssignmentGroupResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
