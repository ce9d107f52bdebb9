package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/metallic-erp/support-hub/internal/api/dto"
	"github.com/metallic-erp/support-hub/internal/auth"
	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/service"
	apperrors "github.com/metallic-erp/support-hub/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	lifecycle *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lifecycle *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{lifecycle: lifecycle}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.lifecycle.CreateTicket(c.UserContext(), service.CreateTicketCommand{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		ClientID:    principal.User.ID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(result.Ticket)})
}

// ListTickets GET /tickets. Visibility is role-scoped.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	tickets := h.lifecycle.TicketsFor(principal.User)
	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, ticketResponse(t))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.loadVisibleTicket(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.lifecycle.ChangeStatus(c.UserContext(), service.StatusChangeCommand{
		TicketID:          ticketID,
		NewStatus:         req.Status,
		TechnicalNotes:    req.ResolutionNotes,
		ClientFacingNotes: req.ClientFacingNotes,
	})
	if err != nil {
		return err
	}
	if !result.Applied {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return c.JSON(fiber.Map{"data": dto.StatusChangeResponse{
		Ticket:   ticketResponse(result.Ticket),
		Reopened: result.Reopened,
		Notified: result.Notified,
	}})
}

// UpdateAssignees PUT /tickets/:id/assignees.
func (h *TicketsHandler) UpdateAssignees(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAssigneesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.lifecycle.UpdateAssignees(c.UserContext(), service.AssigneeUpdateCommand{
		TicketID:     ticketID,
		DeveloperIDs: req.DeveloperIDs,
	})
	if err != nil {
		return err
	}
	if !result.Applied {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return c.JSON(fiber.Map{"data": dto.AssigneeUpdateResponse{
		Ticket:  ticketResponse(result.Ticket),
		Added:   result.Added,
		Removed: result.Removed,
	}})
}

// ArchiveTicket POST /tickets/:id/archive.
func (h *TicketsHandler) ArchiveTicket(c *fiber.Ctx) error {
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	result, err := h.lifecycle.Archive(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	if !result.Applied {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return c.JSON(fiber.Map{"data": ticketResponse(result.Ticket)})
}

// ListMessages GET /tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	ticket, err := h.loadVisibleTicket(c)
	if err != nil {
		return err
	}
	messages := h.lifecycle.MessagesFor(ticket.ID)
	items := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, messageResponse(m))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	ticket, err := h.loadVisibleTicket(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.lifecycle.AddMessage(c.UserContext(), ticket.ID, principal.User.ID, req.Text)
	if err != nil {
		return err
	}
	if msg == nil {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(*msg)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	ticket, err := h.loadVisibleTicket(c)
	if err != nil {
		return err
	}
	history := h.lifecycle.HistoryFor(ticket.ID)
	items := make([]dto.HistoryEventResponse, 0, len(history))
	for _, e := range history {
		items = append(items, dto.HistoryEventResponse{
			ID:        e.ID,
			TicketID:  e.TicketID,
			UserID:    e.UserID,
			Action:    e.Action,
			From:      e.From,
			To:        e.To,
			Timestamp: e.Timestamp,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// loadVisibleTicket resolves :id and enforces role-scoped visibility: clients
// see their own tickets, developers their assignments, admins everything.
func (h *TicketsHandler) loadVisibleTicket(c *fiber.Ctx) (domain.Ticket, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Ticket{}, apperrors.NewUnauthorized("user required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return domain.Ticket{}, err
	}
	ticket, found := h.lifecycle.TicketByID(ticketID)
	if !found {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if !ticketVisibleTo(principal.User, ticket) {
		return domain.Ticket{}, apperrors.NewForbidden("no access to this ticket")
	}
	return ticket, nil
}

func ticketVisibleTo(user domain.User, ticket domain.Ticket) bool {
	switch user.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDeveloper:
		for _, id := range ticket.DeveloperIDs {
			if id == user.ID {
				return true
			}
		}
		return false
	default:
		return ticket.ClientID == user.ID
	}
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func ticketResponse(t domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                     t.ID,
		Title:                  t.Title,
		Description:            t.Description,
		Type:                   t.Type,
		Status:                 t.Status,
		ClientID:               t.ClientID,
		DeveloperIDs:           t.DeveloperIDs,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		ResolutionNotes:        t.ResolutionNotes,
		UserFriendlyResolution: t.UserFriendlyResolution,
	}
}

func messageResponse(m domain.ChatMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        m.ID,
		TicketID:  m.TicketID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}
