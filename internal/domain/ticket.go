package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusTasks      TicketStatus = "TASKS"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWait       TicketStatus = "WAIT"
	TicketStatusReject     TicketStatus = "REJECT"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusArchived   TicketStatus = "ARCHIVED"
)

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusTasks, TicketStatusInProgress, TicketStatusWait,
		TicketStatusReject, TicketStatusCompleted, TicketStatusArchived:
		return true
	}
	return false
}

// TicketType enumerates the two supported request categories.
type TicketType string

const (
	TicketTypeProgramIssue TicketType = "PROGRAM_ISSUE"
	TicketTypeUnlock       TicketType = "UNLOCK"
)

// Valid reports whether the type is a known value.
func (t TicketType) Valid() bool {
	return t == TicketTypeProgramIssue || t == TicketTypeUnlock
}

// Ticket is the aggregate for support requests. Tickets are never deleted;
// ARCHIVED is a terminal status, not removal. DeveloperIDs holds at least one
// assignee at all times after creation.
type Ticket struct {
	ID                     int64        `json:"id"`
	Title                  string       `json:"title"`
	Description            string       `json:"description"`
	Type                   TicketType   `json:"type"`
	Status                 TicketStatus `json:"status"`
	ClientID               int64        `json:"client_id"`
	DeveloperIDs           []int64      `json:"developer_ids"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`
	ResolutionNotes        *string      `json:"resolution_notes,omitempty"`
	UserFriendlyResolution *string      `json:"user_friendly_resolution,omitempty"`
}
