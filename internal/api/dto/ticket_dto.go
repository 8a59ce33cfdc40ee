package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload. Staff-only fields are dropped silently for
// customer callers.
type CreateTicketRequest struct {
	Subject            string                 `json:"subject"`
	Description        string                 `json:"description"`
	CategoryID         *int64                 `json:"category_id"`
	SubcategoryID      *int64                 `json:"subcategory_id"`
	AssignmentGroupID  *int64                 `json:"assignment_group_id"`
	Priority           *domain.TicketPriority `json:"priority"`
	AssignedTo         *int64                 `json:"assigned_to"`
	RequesterID        *int64                 `json:"requester_id"`
	AdditionalComments *string                `json:"additional_comments"`
	WorkNotes          *string                `json:"work_notes"`
}

// UpdateTicketRequest payload. Absent fields are left untouched.
type UpdateTicketRequest struct {
	Subject     *string                `json:"subject"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Priority    *domain.TicketPriority `json:"priority"`
	AssignedTo  *int64                 `json:"assigned_to"`
	Resolution  *string                `json:"resolution"`
}

// TicketResponse is the denormalized ticket view.
type TicketResponse struct {
	ID                  int64                 `json:"id"`
	TicketNumber        string                `json:"ticket_number"`
	Subject             string                `json:"subject"`
	Description         string                `json:"description"`
	Status              domain.TicketStatus   `json:"status"`
	Priority            domain.TicketPriority `json:"priority"`
	CategoryID          *int64                `json:"category_id"`
	CategoryName        *string               `json:"category_name"`
	SubcategoryID       *int64                `json:"subcategory_id"`
	SubcategoryName     *string               `json:"subcategory_name"`
	AssignmentGroupID   *int64                `json:"assignment_group_id"`
	AssignmentGroupName *string               `json:"assignment_group_name"`
	CustomerID          int64                 `json:"customer_id"`
	CustomerName        string                `json:"customer_name"`
	AssignedTo          *int64                `json:"assigned_to"`
	AssigneeName        *string               `json:"assignee_name"`
	Resolution          *string               `json:"resolution"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	ResolvedAt          *time.Time            `json:"resolved_at"`
}

// TicketListResponse wraps a page of tickets.
type TicketListResponse struct {
	Tickets    []TicketResponse `json:"tickets"`
	Pagination Pagination       `json:"pagination"`
}

// TicketDetailResponse adds thread and audit data to a ticket.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
	History  []HistoryResponse `json:"history"`
}

// NextNumberResponse previews the upcoming ticket number.
type NextNumberResponse struct {
	TicketNumber string `json:"ticket_number"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse represents a thread comment.
type CommentResponse struct {
	ID         int64     `json:"id"`
	TicketID   int64     `json:"ticket_id"`
	AuthorID   int64     `json:"author_id"`
	Body       string    `json:"body"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryResponse represents an immutable audit entry.
type HistoryResponse struct {
	ID        int64                `json:"id"`
	TicketID  int64                `json:"ticket_id"`
	ActorID   int64                `json:"actor_id"`
	Action    domain.HistoryAction `json:"action"`
	OldValue  map[string]any       `json:"old_value,omitempty"`
	NewValue  map[string]any       `json:"new_value,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
