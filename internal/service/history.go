package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/store"
)

// HistoryRecorder appends immutable audit events attributed to the currently
// active actor. Events are never edited or removed.
type HistoryRecorder struct {
	store  *store.Store
	logger *zap.Logger
}

// NewHistoryRecorder constructs the recorder.
func NewHistoryRecorder(entityStore *store.Store, logger *zap.Logger) *HistoryRecorder {
	return &HistoryRecorder{store: entityStore, logger: logger}
}

// Record appends one event with a fresh id and the current timestamp. When
// no actor is logged in the event is dropped; the drop is logged because a
// mutation without an audit record usually points at a programming error.
func (r *HistoryRecorder) Record(ctx context.Context, ticketID int64, action domain.HistoryAction, from, to *string) {
	actor, ok := r.store.CurrentActor()
	if !ok {
		r.logger.Warn("history event dropped: no active actor",
			zap.Int64("ticket_id", ticketID),
			zap.String("action", string(action)))
		return
	}
	r.store.AppendHistory(ctx, domain.HistoryEvent{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		UserID:    actor.ID,
		Action:    action,
		From:      from,
		To:        to,
		Timestamp: time.Now(),
	})
}

// ForTicket returns the chronologically sorted audit trail of a ticket.
func (r *HistoryRecorder) ForTicket(ticketID int64) []domain.HistoryEvent {
	return r.store.History(ticketID)
}
