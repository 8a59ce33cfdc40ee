package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketCommentAdded EventType = "ticket_comment_added"
	EventTicketDeleted      EventType = "ticket_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Subject      string                `json:"subject"`
	Priority     domain.TicketPriority `json:"priority"`
	CustomerID   int64                 `json:"customer_id"`
	AssignedTo   *int64                `json:"assigned_to,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	TicketNumber  string               `json:"ticket_number"`
	CustomerID    int64                `json:"customer_id"`
	ChangedFields []string             `json:"changed_fields"`
	NewStatus     *domain.TicketStatus `json:"new_status,omitempty"`
	NewAssignee   *int64               `json:"new_assignee,omitempty"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	TicketNumber string `json:"ticket_number"`
	CustomerID   int64  `json:"customer_id"`
	CommentID    int64  `json:"comment_id"`
	IsInternal   bool   `json:"is_internal"`
	BodyPreview  string `json:"body_preview"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketNumber string `json:"ticket_number"`
	CustomerID   int64  `json:"customer_id"`
}
