package dto

import "github.com/metallic-erp/support-hub/internal/service"

// ResolutionNoteRequest payload for generating a client-facing summary.
type ResolutionNoteRequest struct {
	TicketID       int64  `json:"ticket_id"`
	TechnicalNotes string `json:"technical_notes"`
}

// ResolutionNoteResponse carries the generated summary.
type ResolutionNoteResponse struct {
	Note string `json:"note"`
}

// AssistantChatRequest payload for the help assistant.
type AssistantChatRequest struct {
	History  []service.ChatTurn `json:"history,omitempty"`
	Question string             `json:"question"`
}

// AssistantChatResponse carries the assistant's reply.
type AssistantChatResponse struct {
	Reply string `json:"reply"`
}
