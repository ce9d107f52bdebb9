package events

import (
	"time"

	"github.com/metallic-erp/support-hub/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketAssigneesChanged EventType = "ticket_assignees_changed"
	EventTicketMessageAdded     EventType = "ticket_message_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64           `json:"user_id"`
	Role   domain.UserRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Type       domain.TicketType `json:"type"`
	Title      string            `json:"title"`
	ClientID   int64             `json:"client_id"`
	AssigneeID int64             `json:"assignee_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reopened  bool                `json:"reopened,omitempty"`
}

// TicketAssigneesChangedPayload payload.
type TicketAssigneesChangedPayload struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID int64  `json:"message_id"`
	SenderID  int64  `json:"sender_id"`
	Preview   string `json:"preview"`
}
