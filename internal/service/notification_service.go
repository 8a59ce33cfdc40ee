package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// NotificationService turns domain events into per-user notifications.
// Delivery is fire-and-forget: a failed write is logged and dropped, it
// never rolls back the ticket mutation that produced the event.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
}

// CreateNotification persists a notification for the user. Returns false
// on failure, which callers treat as a dropped delivery.
func (n *NotificationService) CreateNotification(ctx context.Context, userID int64, title, message string, ntype domain.NotificationType, link *string) bool {
	notification := &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
		Link:    link,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Warn("notification dropped",
			zap.Int64("user_id", userID),
			zap.String("type", string(ntype)),
			zap.Error(err))
		return false
	}
	return true
}

// ListForUser returns the user's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error) {
	result, err := n.notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// MarkRead flags a notification as read for its owner.
func (n *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	if err := n.notifications.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	if payload.AssignedTo != nil && *payload.AssignedTo != event.Actor.UserID {
		link := ticketLink(event.TicketID)
		n.CreateNotification(ctx, *payload.AssignedTo,
			fmt.Sprintf("Ticket %s assigned to you", payload.TicketNumber),
			payload.Subject,
			domain.NotificationTypeTicketAssigned, &link)
	}
	return nil
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return nil
	}
	link := ticketLink(event.TicketID)
	if payload.NewStatus != nil && payload.CustomerID != event.Actor.UserID {
		n.CreateNotification(ctx, payload.CustomerID,
			fmt.Sprintf("Ticket %s is now %s", payload.TicketNumber, *payload.NewStatus),
			fmt.Sprintf("The status of your ticket changed to %s.", *payload.NewStatus),
			domain.NotificationTypeTicketUpdated, &link)
	}
	if payload.NewAssignee != nil && *payload.NewAssignee != event.Actor.UserID {
		n.CreateNotification(ctx, *payload.NewAssignee,
			fmt.Sprintf("Ticket %s assigned to you", payload.TicketNumber),
			"You have been assigned a ticket.",
			domain.NotificationTypeTicketAssigned, &link)
	}
	return nil
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return nil
	}
	// internal notes stay invisible to the customer
	if payload.IsInternal || payload.CustomerID == event.Actor.UserID {
		return nil
	}
	link := ticketLink(event.TicketID)
	n.CreateNotification(ctx, payload.CustomerID,
		fmt.Sprintf("New comment on ticket %s", payload.TicketNumber),
		payload.BodyPreview,
		domain.NotificationTypeTicketComment, &link)
	return nil
}

func ticketLink(ticketID int64) string {
	return fmt.Sprintf("/tickets/%d", ticketID)
}
