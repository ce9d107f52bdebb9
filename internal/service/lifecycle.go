package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/events"
	"github.com/metallic-erp/support-hub/internal/notify"
	"github.com/metallic-erp/support-hub/internal/store"
	apperrors "github.com/metallic-erp/support-hub/pkg/util"
)

// LifecycleService validates and applies ticket mutations: creation with
// auto-assignment, status transitions, assignee updates, archival, and chat.
// Lookups on missing tickets are deliberate no-ops (logged, never raised);
// the single-session model favors robustness over strictness there.
type LifecycleService struct {
	store      *store.Store
	recorder   *HistoryRecorder
	notifier   notify.Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	rules      AssignmentRules
}

// LifecycleDependencies bundles collaborators for the lifecycle engine.
type LifecycleDependencies struct {
	Store      *store.Store
	Recorder   *HistoryRecorder
	Notifier   notify.Notifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Rules      AssignmentRules
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		store:      deps.Store,
		recorder:   deps.Recorder,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		rules:      deps.Rules,
	}
}

// CreateTicketCommand describes ticket creation input. AssigneeID overrides
// auto-assignment when set.
type CreateTicketCommand struct {
	Title       string
	Description string
	Type        domain.TicketType
	ClientID    int64
	AssigneeID  *int64
}

// CreateTicketResult reports the created ticket and its assignee.
type CreateTicketResult struct {
	Ticket   domain.Ticket
	Assignee domain.User
}

// StatusChangeCommand describes a status transition. Note fields are partial
// updates: nil leaves the stored value unchanged.
type StatusChangeCommand struct {
	TicketID          int64
	NewStatus         domain.TicketStatus
	TechnicalNotes    *string
	ClientFacingNotes *string
}

// StatusChangeResult reports what happened. Applied is false when the ticket
// did not exist. NotifyErr carries a failed client notification; the status
// change itself is never rolled back on send failure.
type StatusChangeResult struct {
	Applied   bool
	Reopened  bool
	Ticket    domain.Ticket
	Notified  bool
	NotifyErr error
}

// AssigneeUpdateCommand replaces a ticket's assignee set.
type AssigneeUpdateCommand struct {
	TicketID     int64
	DeveloperIDs []int64
}

// AssigneeUpdateResult reports the applied diff by developer name.
type AssigneeUpdateResult struct {
	Applied bool
	Ticket  domain.Ticket
	Added   []string
	Removed []string
}

// CreateTicket resolves an assignee and creates the ticket in status Tasks,
// recording CREATE and ASSIGN history events. Fails without side effects
// when no developers exist.
func (s *LifecycleService) CreateTicket(ctx context.Context, cmd CreateTicketCommand) (*CreateTicketResult, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !cmd.Type.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": cmd.Type})
	}

	devID, err := ResolveAssignee(cmd.Type, cmd.AssigneeID, s.store.Developers(), s.store.Tickets(), s.rules)
	if err != nil {
		switch err {
		case ErrNoDevelopers:
			return nil, apperrors.NewValidationError("cannot create ticket: no developers available", nil)
		case ErrUnknownAssignee:
			return nil, apperrors.NewValidationError("assigned developer does not exist", map[string]any{"assignee_id": cmd.AssigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	assignee, _ := s.store.UserByID(devID)

	now := time.Now()
	ticket := s.store.AddTicket(ctx, domain.Ticket{
		Title:        title,
		Description:  strings.TrimSpace(cmd.Description),
		Type:         cmd.Type,
		Status:       domain.TicketStatusTasks,
		ClientID:     cmd.ClientID,
		DeveloperIDs: []int64{devID},
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	s.recorder.Record(ctx, ticket.ID, domain.HistoryActionCreate, nil, strPtr(ticket.Title))
	s.recorder.Record(ctx, ticket.ID, domain.HistoryActionAssign, nil, strPtr(assignee.Name))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Type:       ticket.Type,
			Title:      ticket.Title,
			ClientID:   ticket.ClientID,
			AssigneeID: devID,
		},
	})
	return &CreateTicketResult{Ticket: ticket, Assignee: assignee}, nil
}

// ChangeStatus applies a status transition. Reopening a Completed ticket
// clears both resolution fields regardless of supplied notes; otherwise the
// supplied note fields are set and omitted ones left alone. Completed and
// Reject trigger the client notification after the mutation and its history
// are persisted.
func (s *LifecycleService) ChangeStatus(ctx context.Context, cmd StatusChangeCommand) (*StatusChangeResult, error) {
	if !cmd.NewStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": cmd.NewStatus})
	}

	ticket, ok := s.store.TicketByID(cmd.TicketID)
	if !ok {
		s.logger.Warn("status change for missing ticket", zap.Int64("ticket_id", cmd.TicketID))
		return &StatusChangeResult{Applied: false}, nil
	}
	if ticket.Status == domain.TicketStatusArchived {
		return nil, apperrors.NewValidationError("ticket is archived", map[string]any{"ticket_id": cmd.TicketID})
	}

	oldStatus := ticket.Status
	reopening := oldStatus == domain.TicketStatusCompleted && cmd.NewStatus != domain.TicketStatusCompleted

	if reopening {
		ticket.ResolutionNotes = nil
		ticket.UserFriendlyResolution = nil
	} else {
		if cmd.TechnicalNotes != nil {
			ticket.ResolutionNotes = cmd.TechnicalNotes
		}
		if cmd.ClientFacingNotes != nil {
			ticket.UserFriendlyResolution = cmd.ClientFacingNotes
		}
	}
	ticket.Status = cmd.NewStatus
	ticket.UpdatedAt = time.Now()
	s.store.UpdateTicket(ctx, ticket)

	s.recorder.Record(ctx, ticket.ID, domain.HistoryActionStatusChange, strPtr(string(oldStatus)), strPtr(string(cmd.NewStatus)))
	if cmd.NewStatus == domain.TicketStatusReject && hasText(cmd.TechnicalNotes) {
		s.recorder.Record(ctx, ticket.ID, domain.HistoryActionAddNote, nil, strPtr("Rejection reason"))
	}
	if cmd.NewStatus == domain.TicketStatusCompleted && hasText(cmd.TechnicalNotes) {
		s.recorder.Record(ctx, ticket.ID, domain.HistoryActionAddNote, nil, strPtr("Resolution notes"))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: cmd.NewStatus,
			Reopened:  reopening,
		},
	})

	result := &StatusChangeResult{Applied: true, Reopened: reopening, Ticket: ticket}
	if cmd.NewStatus == domain.TicketStatusCompleted || cmd.NewStatus == domain.TicketStatusReject {
		s.notifyClient(ctx, ticket, cmd, result)
	}
	return result, nil
}

// UpdateAssignees replaces the assignee set and records the diff. The
// non-empty invariant is enforced here so no caller can strand a ticket
// without a developer.
func (s *LifecycleService) UpdateAssignees(ctx context.Context, cmd AssigneeUpdateCommand) (*AssigneeUpdateResult, error) {
	if len(cmd.DeveloperIDs) == 0 {
		return nil, apperrors.NewValidationError("a ticket needs at least one assignee", nil)
	}

	ticket, ok := s.store.TicketByID(cmd.TicketID)
	if !ok {
		s.logger.Warn("assignee update for missing ticket", zap.Int64("ticket_id", cmd.TicketID))
		return &AssigneeUpdateResult{Applied: false}, nil
	}

	oldNames := s.developerNames(ticket.DeveloperIDs)
	newNames := s.developerNames(cmd.DeveloperIDs)
	added := diffNames(newNames, oldNames)
	removed := diffNames(oldNames, newNames)

	ticket.DeveloperIDs = append([]int64(nil), cmd.DeveloperIDs...)
	ticket.UpdatedAt = time.Now()
	s.store.UpdateTicket(ctx, ticket)

	if len(added) > 0 {
		s.recorder.Record(ctx, ticket.ID, domain.HistoryActionAssign, nil, strPtr(strings.Join(added, ", ")))
	}
	if len(removed) > 0 {
		s.recorder.Record(ctx, ticket.ID, domain.HistoryActionUnassign, strPtr(strings.Join(removed, ", ")), nil)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigneesChanged,
		TicketID: ticket.ID,
		Payload:  events.TicketAssigneesChangedPayload{Added: added, Removed: removed},
	})
	return &AssigneeUpdateResult{Applied: true, Ticket: ticket, Added: added, Removed: removed}, nil
}

// Archive moves the ticket to the terminal Archived status.
func (s *LifecycleService) Archive(ctx context.Context, ticketID int64) (*StatusChangeResult, error) {
	return s.ChangeStatus(ctx, StatusChangeCommand{TicketID: ticketID, NewStatus: domain.TicketStatusArchived})
}

// AddMessage appends a chat message to the ticket's thread. Returns nil when
// the ticket does not exist.
func (s *LifecycleService) AddMessage(ctx context.Context, ticketID, senderID int64, text string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("message text required", nil)
	}
	if _, ok := s.store.TicketByID(ticketID); !ok {
		s.logger.Warn("message for missing ticket", zap.Int64("ticket_id", ticketID))
		return nil, nil
	}
	msg := s.store.AddMessage(ctx, domain.ChatMessage{
		TicketID:  ticketID,
		SenderID:  senderID,
		Text:      text,
		Timestamp: time.Now(),
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticketID,
		Payload: events.TicketMessageAddedPayload{
			MessageID: msg.ID,
			SenderID:  senderID,
			Preview:   preview(msg.Text, 120),
		},
	})
	return &msg, nil
}

// TicketsFor returns the tickets visible to the given user: clients see
// their own, developers their active assignments, admins everything.
func (s *LifecycleService) TicketsFor(user domain.User) []domain.Ticket {
	all := s.store.Tickets()
	switch user.Role {
	case domain.RoleAdmin:
		return all
	case domain.RoleDeveloper:
		var visible []domain.Ticket
		for _, t := range all {
			if t.Status == domain.TicketStatusArchived {
				continue
			}
			for _, id := range t.DeveloperIDs {
				if id == user.ID {
					visible = append(visible, t)
					break
				}
			}
		}
		return visible
	default:
		var visible []domain.Ticket
		for _, t := range all {
			if t.ClientID == user.ID {
				visible = append(visible, t)
			}
		}
		return visible
	}
}

// TicketByID exposes a single ticket lookup.
func (s *LifecycleService) TicketByID(id int64) (domain.Ticket, bool) {
	return s.store.TicketByID(id)
}

// MessagesFor returns a ticket's chat thread.
func (s *LifecycleService) MessagesFor(ticketID int64) []domain.ChatMessage {
	return s.store.Messages(ticketID)
}

// HistoryFor returns a ticket's audit trail.
func (s *LifecycleService) HistoryFor(ticketID int64) []domain.HistoryEvent {
	return s.recorder.ForTicket(ticketID)
}

// notifyClient sends the completion/rejection email. The mutation is already
// persisted; a failed send only surfaces in the result.
func (s *LifecycleService) notifyClient(ctx context.Context, ticket domain.Ticket, cmd StatusChangeCommand, result *StatusChangeResult) {
	client, ok := s.store.UserByID(ticket.ClientID)
	if !ok {
		s.logger.Warn("notification skipped: client not found",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("client_id", ticket.ClientID))
		return
	}

	summary := ""
	switch {
	case hasText(cmd.ClientFacingNotes):
		summary = *cmd.ClientFacingNotes
	case hasText(cmd.TechnicalNotes):
		summary = *cmd.TechnicalNotes
	case ticket.UserFriendlyResolution != nil:
		summary = *ticket.UserFriendlyResolution
	case ticket.ResolutionNotes != nil:
		summary = *ticket.ResolutionNotes
	}

	subject := fmt.Sprintf("Update on your support ticket #%d: %s", ticket.ID, ticket.Title)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>There has been an update on your support ticket.</p><p><b>Status:</b> %s</p><p><b>Summary:</b></p><p>%s</p><p>Thank you for using Metallic ERP.</p>",
		client.Name, ticket.Status, summary)

	if err := s.notifier.Send(ctx, client.Email, subject, body); err != nil {
		s.logger.Error("client notification failed",
			zap.Int64("ticket_id", ticket.ID),
			zap.String("to", client.Email),
			zap.Error(err))
		result.NotifyErr = err
		return
	}
	result.Notified = true
}

func (s *LifecycleService) developerNames(ids []int64) []string {
	var names []string
	for _, u := range s.store.Users() {
		for _, id := range ids {
			if u.ID == id {
				names = append(names, u.Name)
				break
			}
		}
	}
	return names
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if actor, ok := s.store.CurrentActor(); ok {
		event.Actor = events.Actor{UserID: actor.ID, Role: actor.Role}
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func diffNames(from, against []string) []string {
	var out []string
	for _, name := range from {
		found := false
		for _, other := range against {
			if name == other {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}

func hasText(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func strPtr(v string) *string {
	return &v
}
