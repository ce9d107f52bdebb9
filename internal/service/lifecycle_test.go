package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/events"
	"github.com/metallic-erp/support-hub/internal/persistence"
	"github.com/metallic-erp/support-hub/internal/store"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (n *recordingNotifier) all() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

type lifecycleFixture struct {
	svc      *LifecycleService
	store    *store.Store
	notifier *recordingNotifier
	events   []events.Event
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	entityStore := store.New(ctx, persistence.NewMemorySnapshotStore(), logger)

	admin, ok := entityStore.UserByID(1)
	require.True(t, ok)
	entityStore.SetCurrentActor(ctx, &admin)

	f := &lifecycleFixture{store: entityStore, notifier: &recordingNotifier{}}
	dispatcher := events.NewInMemoryDispatcher(logger)
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigneesChanged,
		events.EventTicketMessageAdded,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}

	f.svc = NewLifecycleService(LifecycleDependencies{
		Store:      entityStore,
		Recorder:   NewHistoryRecorder(entityStore, logger),
		Notifier:   f.notifier,
		Dispatcher: dispatcher,
		Logger:     logger,
		Rules:      AssignmentRules{ProgramIssueAssignee: "Karim", UnlockAssignee: "Mariam"},
	})
	return f
}

func (f *lifecycleFixture) createTicket(t *testing.T, ticketType domain.TicketType) domain.Ticket {
	t.Helper()
	result, err := f.svc.CreateTicket(context.Background(), CreateTicketCommand{
		Title:       "ERP module crashes on save",
		Description: "Happens every time since the update.",
		Type:        ticketType,
		ClientID:    1,
	})
	require.NoError(t, err)
	return result.Ticket
}

func TestCreateTicketUnlockAssignedToMariam(t *testing.T) {
	f := newLifecycleFixture(t)

	result, err := f.svc.CreateTicket(context.Background(), CreateTicketCommand{
		Title:    "Unlock posted invoice",
		Type:     domain.TicketTypeUnlock,
		ClientID: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusTasks, result.Ticket.Status)
	assert.Equal(t, "Mariam", result.Assignee.Name)
	assert.Equal(t, []int64{3}, result.Ticket.DeveloperIDs)

	history := f.svc.HistoryFor(result.Ticket.ID)
	require.Len(t, history, 2)
	assert.Equal(t, domain.HistoryActionCreate, history[0].Action)
	assert.Equal(t, domain.HistoryActionAssign, history[1].Action)
	require.NotNil(t, history[1].To)
	assert.Equal(t, "Mariam", *history[1].To)
	assert.Equal(t, int64(1), history[0].UserID)
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.svc.CreateTicket(context.Background(), CreateTicketCommand{
		Title:    "   ",
		Type:     domain.TicketTypeUnlock,
		ClientID: 1,
	})
	assert.Error(t, err)
	assert.Empty(t, f.store.Tickets())
}

func TestCreateTicketFailsWithoutDevelopers(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	for _, id := range []int64{2, 3, 4} {
		dev, _ := f.store.UserByID(id)
		dev.Role = domain.RoleClient
		_, err := f.store.UpdateUser(ctx, dev)
		require.NoError(t, err)
	}

	_, err := f.svc.CreateTicket(ctx, CreateTicketCommand{
		Title:    "Nobody home",
		Type:     domain.TicketTypeProgramIssue,
		ClientID: 1,
	})
	assert.Error(t, err)
	assert.Empty(t, f.store.Tickets())
	assert.Equal(t, 0, f.store.HistoryLen())
}

func TestChangeStatusCompletedNotifiesClient(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	notes := "Patched the posting routine."
	friendly := "The crash on save has been fixed."
	result, err := f.svc.ChangeStatus(context.Background(), StatusChangeCommand{
		TicketID:          ticket.ID,
		NewStatus:         domain.TicketStatusCompleted,
		TechnicalNotes:    &notes,
		ClientFacingNotes: &friendly,
	})
	require.NoError(t, err)
	require.True(t, result.Applied)
	assert.True(t, result.Notified)
	require.NotNil(t, result.Ticket.ResolutionNotes)
	assert.Equal(t, notes, *result.Ticket.ResolutionNotes)

	sent := f.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "admin@metallic.com", sent[0].To)
	assert.Equal(t, fmt.Sprintf("Update on your support ticket #%d: %s", ticket.ID, ticket.Title), sent[0].Subject)
	assert.Contains(t, sent[0].Body, friendly)

	history := f.svc.HistoryFor(ticket.ID)
	require.Len(t, history, 4)
	assert.Equal(t, domain.HistoryActionStatusChange, history[2].Action)
	assert.Equal(t, domain.HistoryActionAddNote, history[3].Action)
	require.NotNil(t, history[3].To)
	assert.Equal(t, "Resolution notes", *history[3].To)
}

func TestChangeStatusRejectRecordsRejectionReason(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	reason := "Works as designed."
	result, err := f.svc.ChangeStatus(context.Background(), StatusChangeCommand{
		TicketID:       ticket.ID,
		NewStatus:      domain.TicketStatusReject,
		TechnicalNotes: &reason,
	})
	require.NoError(t, err)
	assert.True(t, result.Notified)

	history := f.svc.HistoryFor(ticket.ID)
	last := history[len(history)-1]
	assert.Equal(t, domain.HistoryActionAddNote, last.Action)
	require.NotNil(t, last.To)
	assert.Equal(t, "Rejection reason", *last.To)
}

func TestChangeStatusWithoutNotesSkipsNoteEvent(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	_, err := f.svc.ChangeStatus(context.Background(), StatusChangeCommand{
		TicketID:  ticket.ID,
		NewStatus: domain.TicketStatusInProgress,
	})
	require.NoError(t, err)

	history := f.svc.HistoryFor(ticket.ID)
	require.Len(t, history, 3)
	assert.Equal(t, domain.HistoryActionStatusChange, history[2].Action)
	assert.Empty(t, f.notifier.all())
}

func TestReopeningClearsResolutionFields(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	notes := "Fixed."
	friendly := "All sorted."
	_, err := f.svc.ChangeStatus(ctx, StatusChangeCommand{
		TicketID:          ticket.ID,
		NewStatus:         domain.TicketStatusCompleted,
		TechnicalNotes:    &notes,
		ClientFacingNotes: &friendly,
	})
	require.NoError(t, err)

	stale := "should be discarded"
	result, err := f.svc.ChangeStatus(ctx, StatusChangeCommand{
		TicketID:       ticket.ID,
		NewStatus:      domain.TicketStatusInProgress,
		TechnicalNotes: &stale,
	})
	require.NoError(t, err)
	assert.True(t, result.Reopened)
	assert.Nil(t, result.Ticket.ResolutionNotes)
	assert.Nil(t, result.Ticket.UserFriendlyResolution)

	stored, _ := f.store.TicketByID(ticket.ID)
	assert.Nil(t, stored.ResolutionNotes)
	assert.Nil(t, stored.UserFriendlyResolution)
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)
	f.notifier.err = fmt.Errorf("smtp unreachable")

	result, err := f.svc.ChangeStatus(context.Background(), StatusChangeCommand{
		TicketID:  ticket.ID,
		NewStatus: domain.TicketStatusCompleted,
	})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.False(t, result.Notified)
	assert.Error(t, result.NotifyErr)

	stored, _ := f.store.TicketByID(ticket.ID)
	assert.Equal(t, domain.TicketStatusCompleted, stored.Status)
}

func TestChangeStatusMissingTicketIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)

	result, err := f.svc.ChangeStatus(context.Background(), StatusChangeCommand{
		TicketID:  999,
		NewStatus: domain.TicketStatusInProgress,
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, 0, f.store.HistoryLen())
}

func TestArchivedTicketRejectsTransitions(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	archived, err := f.svc.Archive(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusArchived, archived.Ticket.Status)

	_, err = f.svc.ChangeStatus(ctx, StatusChangeCommand{
		TicketID:  ticket.ID,
		NewStatus: domain.TicketStatusTasks,
	})
	assert.Error(t, err)
}

func TestUpdateAssigneesRecordsDiff(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue) // Karim

	result, err := f.svc.UpdateAssignees(context.Background(), AssigneeUpdateCommand{
		TicketID:     ticket.ID,
		DeveloperIDs: []int64{3, 4},
	})
	require.NoError(t, err)
	require.True(t, result.Applied)
	assert.Equal(t, []string{"Mariam", "Mohamed"}, result.Added)
	assert.Equal(t, []string{"Karim"}, result.Removed)

	history := f.svc.HistoryFor(ticket.ID)
	require.Len(t, history, 4)
	assert.Equal(t, domain.HistoryActionAssign, history[2].Action)
	require.NotNil(t, history[2].To)
	assert.Equal(t, "Mariam, Mohamed", *history[2].To)
	assert.Equal(t, domain.HistoryActionUnassign, history[3].Action)
	require.NotNil(t, history[3].From)
	assert.Equal(t, "Karim", *history[3].From)
}

func TestUpdateAssigneesRejectsEmptySet(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	_, err := f.svc.UpdateAssignees(context.Background(), AssigneeUpdateCommand{
		TicketID:     ticket.ID,
		DeveloperIDs: nil,
	})
	assert.Error(t, err)

	stored, _ := f.store.TicketByID(ticket.ID)
	assert.Equal(t, []int64{2}, stored.DeveloperIDs)
}

func TestUpdateAssigneesNoChangeRecordsNothing(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)
	before := len(f.svc.HistoryFor(ticket.ID))

	result, err := f.svc.UpdateAssignees(context.Background(), AssigneeUpdateCommand{
		TicketID:     ticket.ID,
		DeveloperIDs: []int64{2},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
	assert.Len(t, f.svc.HistoryFor(ticket.ID), before)
}

func TestAddMessageAppendsToThread(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	msg, err := f.svc.AddMessage(context.Background(), ticket.ID, 2, "Looking into it now.")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, int64(2), msg.SenderID)

	thread := f.svc.MessagesFor(ticket.ID)
	require.Len(t, thread, 1)
	assert.Equal(t, "Looking into it now.", thread[0].Text)
}

func TestAddMessageMissingTicketReturnsNil(t *testing.T) {
	f := newLifecycleFixture(t)

	msg, err := f.svc.AddMessage(context.Background(), 999, 2, "hello?")
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestTicketsForScopesByRole(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	client, err := f.store.AddUser(ctx, domain.User{Name: "Client", Email: "client@corp.test", Role: domain.RoleClient})
	require.NoError(t, err)

	mine, err := f.svc.CreateTicket(ctx, CreateTicketCommand{
		Title: "Mine", Type: domain.TicketTypeProgramIssue, ClientID: client.ID,
	})
	require.NoError(t, err)
	other := f.createTicket(t, domain.TicketTypeUnlock)

	clientView := f.svc.TicketsFor(client)
	require.Len(t, clientView, 1)
	assert.Equal(t, mine.Ticket.ID, clientView[0].ID)

	karim, _ := f.store.UserByID(2)
	devView := f.svc.TicketsFor(karim)
	require.Len(t, devView, 1)
	assert.Equal(t, mine.Ticket.ID, devView[0].ID)

	admin, _ := f.store.UserByID(1)
	assert.Len(t, f.svc.TicketsFor(admin), 2)
	_ = other
}

func TestDeveloperViewExcludesArchived(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue) // Karim

	karim, _ := f.store.UserByID(2)
	require.Len(t, f.svc.TicketsFor(karim), 1)

	_, err := f.svc.Archive(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, f.svc.TicketsFor(karim))
}

func TestEventsPublishedWithActor(t *testing.T) {
	f := newLifecycleFixture(t)
	ticket := f.createTicket(t, domain.TicketTypeProgramIssue)

	require.NotEmpty(t, f.events)
	created := f.events[0]
	assert.Equal(t, events.EventTicketCreated, created.Type)
	assert.Equal(t, ticket.ID, created.TicketID)
	assert.Equal(t, int64(1), created.Actor.UserID)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Timestamp.IsZero())
}
