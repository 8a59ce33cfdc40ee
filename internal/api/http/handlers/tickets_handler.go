package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Subject:            req.Subject,
		Description:        req.Description,
		CategoryID:         req.CategoryID,
		SubcategoryID:      req.SubcategoryID,
		AssignmentGroupID:  req.AssignmentGroupID,
		Priority:           req.Priority,
		AssignedTo:         req.AssignedTo,
		RequesterID:        req.RequesterID,
		AdditionalComments: req.AdditionalComments,
		WorkNotes:          req.WorkNotes,
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "ticket created", ticketResponse(ticket))
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	page, err := h.tickets.ListTickets(c.UserContext(), principal.User, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Tickets))
	for i := range page.Tickets {
		items = append(items, ticketResponse(&page.Tickets[i]))
	}
	return respond(c, http.StatusOK, "tickets retrieved", dto.TicketListResponse{
		Tickets: items,
		Pagination: dto.Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// NextNumber GET /api/tickets/next-number. Preview only, nothing is reserved.
func (h *TicketsHandler) NextNumber(c *fiber.Ctx) error {
	number := h.tickets.PreviewNextNumber(c.UserContext())
	return respond(c, http.StatusOK, "next ticket number", dto.NextNumberResponse{TicketNumber: number})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	detail, comments, history, err := h.tickets.GetTicket(c.UserContext(), principal.User, ticketID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket retrieved", ticketDetailResponse(detail, comments, history))
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.TicketUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		Resolution:  req.Resolution,
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), principal.User, ticketID, input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket updated", ticketResponse(ticket))
}

// DeleteTicket DELETE /api/tickets/:id. Admin only, gated in the router.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), principal.User, ticketID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket deleted", nil)
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.comments.AddComment(c.UserContext(), principal.User, ticketID, req.Body, req.IsInternal)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "comment added", commentResponse(comment))
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", nil)
	}
	return id, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category_id"); categoryStr != "" {
		if id, err := strconv.ParseInt(categoryStr, 10, 64); err == nil {
			filter.CategoryID = &id
		}
	}
	if assignedStr := c.Query("assigned_to"); assignedStr != "" {
		if id, err := strconv.ParseInt(assignedStr, 10, 64); err == nil {
			filter.AssignedTo = &id
		}
	}
	if unassigned := c.Query("unassigned"); unassigned == "true" || unassigned == "1" {
		filter.Unassigned = true
	}
	if idsStr := c.Query("ticket_ids"); idsStr != "" {
		for _, part := range strings.Split(idsStr, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				filter.TicketIDs = append(filter.TicketIDs, id)
			}
		}
	}
	filter.Page = parseIntQuery(c.Query("page"), 1)
	filter.Limit = parseIntQuery(c.Query("limit"), 20)
	return filter
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(t *domain.TicketDetail) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                  t.ID,
		TicketNumber:        t.TicketNumber,
		Subject:             t.Subject,
		Description:         t.Description,
		Status:              t.Status,
		Priority:            t.Priority,
		CategoryID:          t.CategoryID,
		CategoryName:        t.CategoryName,
		SubcategoryID:       t.SubcategoryID,
		SubcategoryName:     t.SubcategoryName,
		AssignmentGroupID:   t.AssignmentGroupID,
		AssignmentGroupName: t.AssignmentGroupName,
		CustomerID:          t.CustomerID,
		CustomerName:        t.CustomerName,
		AssignedTo:          t.AssignedTo,
		AssigneeName:        t.AssigneeName,
		Resolution:          t.Resolution,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		ResolvedAt:          t.ResolvedAt,
	}
}

func ticketDetailResponse(t *domain.TicketDetail, comments []domain.TicketComment, history []domain.TicketHistory) dto.TicketDetailResponse {
	commentItems := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		commentItems = append(commentItems, commentResponse(&comments[i]))
	}
	historyItems := make([]dto.HistoryResponse, 0, len(history))
	for _, entry := range history {
		historyItems = append(historyItems, dto.HistoryResponse{
			ID:        entry.ID,
			TicketID:  entry.TicketID,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		TicketResponse: ticketResponse(t),
		Comments:       commentItems,
		History:        historyItems,
	}
}

func commentResponse(comment *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		AuthorID:   comment.AuthorID,
		Body:       comment.Body,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}
