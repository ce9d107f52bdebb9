package dto

import (
	"time"

	"github.com/metallic-erp/support-hub/internal/domain"
)

// CreateTicketRequest payload. AssigneeID overrides auto-assignment.
type CreateTicketRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        domain.TicketType `json:"type"`
	AssigneeID  *int64            `json:"assignee_id,omitempty"`
}

// UpdateStatusRequest payload. Note fields are optional partial updates.
type UpdateStatusRequest struct {
	Status            domain.TicketStatus `json:"status"`
	ResolutionNotes   *string             `json:"resolution_notes,omitempty"`
	ClientFacingNotes *string             `json:"client_facing_notes,omitempty"`
}

// UpdateAssigneesRequest payload.
type UpdateAssigneesRequest struct {
	DeveloperIDs []int64 `json:"developer_ids"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Text string `json:"text"`
}

// TicketResponse mirrors a stored ticket.
type TicketResponse struct {
	ID                     int64               `json:"id"`
	Title                  string              `json:"title"`
	Description            string              `json:"description"`
	Type                   domain.TicketType   `json:"type"`
	Status                 domain.TicketStatus `json:"status"`
	ClientID               int64               `json:"client_id"`
	DeveloperIDs           []int64             `json:"developer_ids"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
	ResolutionNotes        *string             `json:"resolution_notes,omitempty"`
	UserFriendlyResolution *string             `json:"user_friendly_resolution,omitempty"`
}

// StatusChangeResponse reports the transition outcome.
type StatusChangeResponse struct {
	Ticket   TicketResponse `json:"ticket"`
	Reopened bool           `json:"reopened"`
	Notified bool           `json:"notified"`
}

// AssigneeUpdateResponse reports the applied assignee diff.
type AssigneeUpdateResponse struct {
	Ticket  TicketResponse `json:"ticket"`
	Added   []string       `json:"added,omitempty"`
	Removed []string       `json:"removed,omitempty"`
}

// MessageResponse represents one chat message.
type MessageResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	SenderID  int64     `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEventResponse represents one audit event.
type HistoryEventResponse struct {
	ID        string               `json:"id"`
	TicketID  int64                `json:"ticket_id"`
	UserID    int64                `json:"user_id"`
	Action    domain.HistoryAction `json:"action"`
	From      *string              `json:"from,omitempty"`
	To        *string              `json:"to,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}
