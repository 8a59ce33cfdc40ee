package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// NotificationsHandler exposes per-user notifications.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// ListNotifications GET /api/notifications.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseIntQuery(c.Query("page"), 1)
	limit := parseIntQuery(c.Query("limit"), 20)
	items, err := h.notifications.ListForUser(c.UserContext(), principal.User.ID, limit, (page-1)*limit)
	if err != nil {
		return err
	}
	result := make([]dto.NotificationResponse, 0, len(items))
	for _, item := range items {
		result = append(result, dto.NotificationResponse{
			ID:        item.ID,
			Title:     item.Title,
			Message:   item.Message,
			Type:      item.Type,
			Link:      item.Link,
			IsRead:    item.IsRead,
			CreatedAt: item.CreatedAt,
		})
	}
	return respond(c, http.StatusOK, "notifications retrieved", result)
}

// MarkRead PUT /api/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), id, principal.User.ID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "notification marked read", nil)
}
