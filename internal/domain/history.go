package domain

import "time"

// HistoryAction captures what kind of mutation a history event records.
type HistoryAction string

const (
	HistoryActionCreate       HistoryAction = "CREATE"
	HistoryActionStatusChange HistoryAction = "STATUS_CHANGE"
	HistoryActionAssign       HistoryAction = "ASSIGN"
	HistoryActionUnassign     HistoryAction = "UNASSIGN"
	HistoryActionAddNote      HistoryAction = "ADD_NOTE"
)

// HistoryEvent is one immutable audit record of a ticket mutation. From and
// To carry nullable prior/new value labels whose meaning depends on Action.
type HistoryEvent struct {
	ID        string        `json:"id"`
	TicketID  int64         `json:"ticket_id"`
	UserID    int64         `json:"user_id"`
	Action    HistoryAction `json:"action"`
	From      *string       `json:"from"`
	To        *string       `json:"to"`
	Timestamp time.Time     `json:"timestamp"`
}
