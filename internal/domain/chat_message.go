package domain

import "time"

// ChatMessage captures one message in a ticket's conversation thread.
// Append-only; never mutated or deleted.
type ChatMessage struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	SenderID  int64     `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
