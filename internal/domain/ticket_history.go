package domain

import "time"

// HistoryAction tags the kind of mutation recorded by a history entry.
type HistoryAction string

const (
	HistoryActionCreated       HistoryAction = "created"
	HistoryActionUpdated       HistoryAction = "updated"
	HistoryActionCommentAdded  HistoryAction = "comment_added"
	HistoryActionWorkNoteAdded HistoryAction = "work_note_added"
)

// TicketHistory is an immutable audit trail entry. Entries are only ever
// appended, never edited or deleted.
type TicketHistory struct {
	ID        int64
	TicketID  int64
	ActorID   int64
	Action    HistoryAction
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedAt time.Time
}
