package domain

import "time"

// TicketComment captures communications in a ticket thread. Internal
// comments are visible to staff only.
type TicketComment struct {
	ID         int64
	TicketID   int64
	AuthorID   int64
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}
