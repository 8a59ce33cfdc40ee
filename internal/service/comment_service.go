package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// CommentService appends comments to ticket threads. Every comment bumps
// the parent ticket's updated_at and produces a history entry.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	history    repository.TicketHistoryRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(tickets repository.TicketRepository, comments repository.TicketCommentRepository, history repository.TicketHistoryRepository, tx repository.TxManager, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{
		tickets:    tickets,
		comments:   comments,
		history:    history,
		tx:         tx,
		dispatcher: dispatcher,
	}
}

// AddComment appends a comment. Customers may only comment on their own
// tickets and may not post internal notes.
func (s *CommentService) AddComment(ctx context.Context, actor *domain.User, ticketID int64, body string, internal bool) (*domain.TicketComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if !actor.Role.IsStaff() {
		if ticket.CustomerID != actor.ID {
			return nil, apperrors.NewAccessDenied("not your ticket")
		}
		if internal {
			return nil, apperrors.NewForbidden("only staff can add internal comments")
		}
	}

	comment := &domain.TicketComment{
		TicketID:   ticketID,
		AuthorID:   actor.ID,
		Body:       body,
		IsInternal: internal,
	}

	action := domain.HistoryActionCommentAdded
	snapshotKey := "comment"
	if internal {
		action = domain.HistoryActionWorkNoteAdded
		snapshotKey = "work_note"
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		if err := s.comments.WithQuerier(q).Create(ctx, comment); err != nil {
			return err
		}
		entry := &domain.TicketHistory{
			TicketID: ticketID,
			ActorID:  actor.ID,
			Action:   action,
			NewValue: map[string]any{snapshotKey: body},
		}
		if err := s.history.WithQuerier(q).Create(ctx, entry); err != nil {
			return err
		}
		// comment additions count as ticket mutations
		return s.tickets.WithQuerier(q).TouchUpdatedAt(ctx, ticketID)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketCommentAdded,
			TicketID:  ticketID,
			Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
			Timestamp: time.Now(),
			Payload: events.TicketCommentAddedPayload{
				TicketNumber: ticket.TicketNumber,
				CustomerID:   ticket.CustomerID,
				CommentID:    comment.ID,
				IsInternal:   internal,
				BodyPreview:  bodyPreview(body, 120),
			},
		})
	}
	return comment, nil
}

func bodyPreview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
