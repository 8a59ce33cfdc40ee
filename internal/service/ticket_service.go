package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketService owns the ticket lifecycle: creation, numbered identity,
// permitted field updates, history recording and deletion.
type TicketService struct {
	tickets      repository.TicketRepository
	comments     repository.TicketCommentRepository
	history      repository.TicketHistoryRepository
	users        repository.UserRepository
	categories   repository.CategoryRepository
	tx           repository.TxManager
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	numberPrefix string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.TicketCommentRepository
	HistoryRepo  repository.TicketHistoryRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	TxManager    repository.TxManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	NumberPrefix string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	prefix := deps.NumberPrefix
	if prefix == "" {
		prefix = DefaultTicketPrefix
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:      deps.TicketRepo,
		comments:     deps.CommentRepo,
		history:      deps.HistoryRepo,
		users:        deps.UserRepo,
		categories:   deps.CategoryRepo,
		tx:           deps.TxManager,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		numberPrefix: prefix,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject            string
	Description        string
	CategoryID         *int64
	SubcategoryID      *int64
	AssignmentGroupID  *int64
	Priority           *domain.TicketPriority
	AssignedTo         *int64
	RequesterID        *int64
	AdditionalComments *string
	WorkNotes          *string
}

// TicketUpdateInput describes ticket update payload. Nil means "not in
// the request".
type TicketUpdateInput struct {
	Subject     *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssignedTo  *int64
	Resolution  *string
}

func (in TicketUpdateInput) requestedFields() []string {
	var fields []string
	if in.Subject != nil {
		fields = append(fields, FieldSubject)
	}
	if in.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if in.Status != nil {
		fields = append(fields, FieldStatus)
	}
	if in.Priority != nil {
		fields = append(fields, FieldPriority)
	}
	if in.AssignedTo != nil {
		fields = append(fields, FieldAssignedTo)
	}
	if in.Resolution != nil {
		fields = append(fields, FieldResolution)
	}
	return fields
}

// asMap renders the raw request fields for the audit snapshot.
func (in TicketUpdateInput) asMap() map[string]any {
	m := map[string]any{}
	if in.Subject != nil {
		m[FieldSubject] = *in.Subject
	}
	if in.Description != nil {
		m[FieldDescription] = *in.Description
	}
	if in.Status != nil {
		m[FieldStatus] = *in.Status
	}
	if in.Priority != nil {
		m[FieldPriority] = *in.Priority
	}
	if in.AssignedTo != nil {
		m[FieldAssignedTo] = *in.AssignedTo
	}
	if in.Resolution != nil {
		m[FieldResolution] = *in.Resolution
	}
	return m
}

// TicketListFilter describes listing parameters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	CategoryID *int64
	AssignedTo *int64
	Unassigned bool
	TicketIDs  []int64
	Page       int
	Limit      int
}

// TicketPage is a paginated listing result.
type TicketPage struct {
	Tickets    []domain.TicketDetail
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// CreateTicket creates a ticket for the actor, or on behalf of another
// customer when staff supply a requester. Staff-only fields supplied by a
// customer are silently dropped; on update the same fields are hard
// rejected.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.TicketDetail, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("subject and description are required", nil)
	}

	if !actor.Role.IsStaff() {
		input.RequesterID = nil
		input.AssignedTo = nil
		input.AssignmentGroupID = nil
		input.WorkNotes = nil
	}

	customerID := actor.ID
	if input.RequesterID != nil {
		requester, err := s.users.GetByID(ctx, *input.RequesterID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("requester not found", map[string]any{"requester_id": *input.RequesterID})
			}
			return nil, apperrors.MapError(err)
		}
		customerID = requester.ID
	}

	subcategoryID := input.SubcategoryID
	if subcategoryID != nil {
		exists, err := s.categories.SubcategoryExists(ctx, *subcategoryID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !exists {
			// stale client-side dropdown data is tolerated, not rejected
			subcategoryID = nil
		}
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		priority = *input.Priority
	}

	ticket := &domain.Ticket{
		Subject:           subject,
		Description:       description,
		Status:            domain.TicketStatusOpen,
		Priority:          priority,
		CategoryID:        input.CategoryID,
		SubcategoryID:     subcategoryID,
		AssignmentGroupID: input.AssignmentGroupID,
		CustomerID:        customerID,
		AssignedTo:        input.AssignedTo,
	}

	createOnce := func() error {
		ticket.ID = 0
		return s.tx.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
			tickets := s.tickets.WithQuerier(q)
			ticket.TicketNumber = NextTicketNumber(ctx, tickets, s.numberPrefix)
			if err := tickets.Create(ctx, ticket); err != nil {
				return err
			}

			comments := s.comments.WithQuerier(q)
			history := s.history.WithQuerier(q)

			if body := trimmed(input.AdditionalComments); body != "" {
				comment := &domain.TicketComment{TicketID: ticket.ID, AuthorID: actor.ID, Body: body}
				if err := comments.Create(ctx, comment); err != nil {
					return err
				}
				entry := &domain.TicketHistory{
					TicketID: ticket.ID,
					ActorID:  actor.ID,
					Action:   domain.HistoryActionCommentAdded,
					NewValue: map[string]any{"comment": body},
				}
				if err := history.Create(ctx, entry); err != nil {
					return err
				}
			}

			if body := trimmed(input.WorkNotes); body != "" && actor.Role.IsStaff() {
				note := &domain.TicketComment{TicketID: ticket.ID, AuthorID: actor.ID, Body: body, IsInternal: true}
				if err := comments.Create(ctx, note); err != nil {
					return err
				}
				entry := &domain.TicketHistory{
					TicketID: ticket.ID,
					ActorID:  actor.ID,
					Action:   domain.HistoryActionWorkNoteAdded,
					NewValue: map[string]any{"work_note": body},
				}
				if err := history.Create(ctx, entry); err != nil {
					return err
				}
			}

			created := &domain.TicketHistory{
				TicketID: ticket.ID,
				ActorID:  actor.ID,
				Action:   domain.HistoryActionCreated,
				NewValue: map[string]any{
					"ticket_number": ticket.TicketNumber,
					"subject":       ticket.Subject,
				},
			}
			return history.Create(ctx, created)
		})
	}

	err := createOnce()
	if repository.IsUniqueViolation(err) {
		// concurrent creation took the same sequence value; re-read and retry once
		err = createOnce()
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Subject:      ticket.Subject,
			Priority:     ticket.Priority,
			CustomerID:   ticket.CustomerID,
			AssignedTo:   ticket.AssignedTo,
		},
	})

	detail, err := s.tickets.GetDetailByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

// UpdateTicket applies the permitted field changes for the actor's role,
// records an audit entry with a pre-update snapshot, and returns the
// refreshed denormalized ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID int64, input TicketUpdateInput) (*domain.TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if !actor.Role.IsStaff() && ticket.CustomerID != actor.ID {
		return nil, apperrors.NewAccessDenied("not your ticket")
	}

	if _, err := FilterUpdate(actor.Role, input.requestedFields()); err != nil {
		return nil, err
	}

	oldSnapshot := ticketSnapshot(ticket)

	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return nil, apperrors.NewValidationError("subject cannot be empty", nil)
		}
		ticket.Subject = subject
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		ticket.Description = description
	}
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		ticket.Status = *input.Status
		if ticket.Status == domain.TicketStatusResolved {
			// restamped on every resolved write, matching the historical behavior
			now := time.Now()
			ticket.ResolvedAt = &now
		}
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.AssignedTo != nil {
		ticket.AssignedTo = input.AssignedTo
	}
	if input.Resolution != nil {
		ticket.Resolution = input.Resolution
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, q repository.Querier) error {
		if err := s.tickets.WithQuerier(q).Update(ctx, ticket); err != nil {
			return err
		}
		entry := &domain.TicketHistory{
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Action:   domain.HistoryActionUpdated,
			OldValue: oldSnapshot,
			NewValue: input.asMap(),
		}
		return s.history.WithQuerier(q).Create(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketUpdatedPayload{
			TicketNumber:  ticket.TicketNumber,
			CustomerID:    ticket.CustomerID,
			ChangedFields: input.requestedFields(),
			NewStatus:     input.Status,
			NewAssignee:   input.AssignedTo,
		},
	})

	detail, err := s.tickets.GetDetailByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

// DeleteTicket hard-deletes a ticket; comments and history go with it via
// cascade. Irreversible. The admin gate lives in the routing layer.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return apperrors.MapError(err)
	}

	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("ticket deleted",
		zap.Int64("ticket_id", ticketID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.Int64("actor_id", actor.ID))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketDeletedPayload{
			TicketNumber: ticket.TicketNumber,
			CustomerID:   ticket.CustomerID,
		},
	})
	return nil
}

// GetTicket returns the denormalized ticket with its comments and history.
// Customers see only their own tickets and never internal comments.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID int64) (*domain.TicketDetail, []domain.TicketComment, []domain.TicketHistory, error) {
	detail, err := s.tickets.GetDetailByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, nil, nil, apperrors.MapError(err)
	}

	if !actor.Role.IsStaff() && detail.CustomerID != actor.ID {
		return nil, nil, nil, apperrors.NewAccessDenied("not your ticket")
	}

	comments, err := s.comments.ListByTicket(ctx, ticketID, actor.Role.IsStaff())
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return detail, comments, history, nil
}

// ListTickets returns a filtered page. Customers are always scoped to
// their own tickets; staff-only filters from customers are ignored.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) (*TicketPage, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		CategoryID: filter.CategoryID,
		TicketIDs:  filter.TicketIDs,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if actor.Role.IsStaff() {
		repoFilter.AssignedTo = filter.AssignedTo
		repoFilter.Unassigned = filter.Unassigned
	} else {
		customerID := actor.ID
		repoFilter.CustomerID = &customerID
	}

	tickets, total, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &TicketPage{
		Tickets:    tickets,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// PreviewNextNumber computes the next ticket number without reserving it.
func (s *TicketService) PreviewNextNumber(ctx context.Context) string {
	return NextTicketNumber(ctx, s.tickets, s.numberPrefix)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func ticketSnapshot(t *domain.Ticket) map[string]any {
	m := map[string]any{
		"ticket_number": t.TicketNumber,
		"subject":       t.Subject,
		"description":   t.Description,
		"status":        t.Status,
		"priority":      t.Priority,
		"customer_id":   t.CustomerID,
	}
	if t.AssignedTo != nil {
		m["assigned_to"] = *t.AssignedTo
	}
	if t.Resolution != nil {
		m["resolution"] = *t.Resolution
	}
	if t.ResolvedAt != nil {
		m["resolved_at"] = t.ResolvedAt.Format(time.RFC3339)
	}
	return m
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
