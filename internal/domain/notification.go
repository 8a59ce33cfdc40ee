package domain

import "time"

// NotificationType categorizes notifications for client rendering.
type NotificationType string

const (
	NotificationTypeTicketAssigned NotificationType = "ticket_assigned"
	NotificationTypeTicketUpdated  NotificationType = "ticket_updated"
	NotificationTypeTicketComment  NotificationType = "ticket_comment"
)

// Notification is a per-user message produced by domain events.
type Notification struct {
	ID        int64
	UserID    int64
	Title     string
	Message   string
	Type      NotificationType
	Link      *string
	IsRead    bool
	CreatedAt time.Time
}
