package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/metallic-erp/support-hub/internal/api/dto"
	"github.com/metallic-erp/support-hub/internal/service"
	apperrors "github.com/metallic-erp/support-hub/pkg/util"
)

// AssistantHandler exposes the text-generation helpers.
type AssistantHandler struct {
	assistant *service.AssistantService
	lifecycle *service.LifecycleService
}

// NewAssistantHandler constructs handler.
func NewAssistantHandler(assistant *service.AssistantService, lifecycle *service.LifecycleService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, lifecycle: lifecycle}
}

// ResolutionNote POST /assistant/resolution-note.
func (h *AssistantHandler) ResolutionNote(c *fiber.Ctx) error {
	var req dto.ResolutionNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.TechnicalNotes) == "" {
		return apperrors.NewValidationError("technical_notes required", nil)
	}
	ticket, ok := h.lifecycle.TicketByID(req.TicketID)
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": req.TicketID})
	}

	note := h.assistant.GenerateResolutionNote(c.UserContext(), ticket, req.TechnicalNotes)
	return c.JSON(fiber.Map{"data": dto.ResolutionNoteResponse{Note: note}})
}

// Chat POST /assistant/chat.
func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	var req dto.AssistantChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Question) == "" {
		return apperrors.NewValidationError("question required", nil)
	}

	reply := h.assistant.AskAssistant(c.UserContext(), req.History, req.Question)
	return c.JSON(fiber.Map{"data": dto.AssistantChatResponse{Reply: reply}})
}
