package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/domain"
	"github.com/metallic-erp/support-hub/internal/persistence"
)

func newTestStore(t *testing.T) (*Store, *persistence.MemorySnapshotStore) {
	t.Helper()
	snaps := persistence.NewMemorySnapshotStore()
	return New(context.Background(), snaps, zap.NewNop()), snaps
}

func TestNewSeedsUsersWhenSnapshotAbsent(t *testing.T) {
	s, _ := newTestStore(t)

	users := s.Users()
	require.Len(t, users, 4)
	assert.Equal(t, "Admin User", users[0].Name)
	assert.Equal(t, domain.RoleAdmin, users[0].Role)
	assert.Len(t, s.Developers(), 3)
}

func TestNewSeedsUsersWhenSnapshotCorrupt(t *testing.T) {
	ctx := context.Background()
	snaps := persistence.NewMemorySnapshotStore()
	require.NoError(t, snaps.Save(ctx, SnapshotKeyUsers, []byte("{not json")))

	s := New(ctx, snaps, zap.NewNop())
	assert.Len(t, s.Users(), 4)
}

func TestStateSurvivesReload(t *testing.T) {
	ctx := context.Background()
	s, snaps := newTestStore(t)

	created := s.AddTicket(ctx, domain.Ticket{
		Title:        "Printer offline",
		Type:         domain.TicketTypeProgramIssue,
		Status:       domain.TicketStatusTasks,
		ClientID:     1,
		DeveloperIDs: []int64{2},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	s.AddMessage(ctx, domain.ChatMessage{TicketID: created.ID, SenderID: 1, Text: "any update?", Timestamp: time.Now()})
	admin, _ := s.UserByID(1)
	s.SetCurrentActor(ctx, &admin)

	reloaded := New(ctx, snaps, zap.NewNop())
	ticket, ok := reloaded.TicketByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Printer offline", ticket.Title)
	assert.Equal(t, []int64{2}, ticket.DeveloperIDs)
	assert.Len(t, reloaded.Messages(created.ID), 1)

	actor, ok := reloaded.CurrentActor()
	require.True(t, ok)
	assert.Equal(t, int64(1), actor.ID)
}

func TestAddUserAssignsMaxPlusOneID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	user, err := s.AddUser(ctx, domain.User{Name: "Client", Email: "client@corp.test", Role: domain.RoleClient})
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)

	next, err := s.AddUser(ctx, domain.User{Name: "Another", Email: "another@corp.test", Role: domain.RoleClient})
	require.NoError(t, err)
	assert.Equal(t, int64(6), next.ID)
}

func TestAddUserRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.AddUser(ctx, domain.User{Name: "Dup", Email: "ADMIN@metallic.com", Role: domain.RoleClient})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserByEmailIsCaseInsensitive(t *testing.T) {
	s, _ := newTestStore(t)

	user, ok := s.UserByEmail("Admin@Metallic.COM")
	require.True(t, ok)
	assert.Equal(t, int64(1), user.ID)
}

func TestUpdateUserSyncsCurrentActor(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	karim, _ := s.UserByID(2)
	s.SetCurrentActor(ctx, &karim)

	karim.Name = "Karim H."
	updated, err := s.UpdateUser(ctx, karim)
	require.NoError(t, err)
	require.True(t, updated)

	actor, ok := s.CurrentActor()
	require.True(t, ok)
	assert.Equal(t, "Karim H.", actor.Name)
}

func TestSetCurrentActorNilClearsSession(t *testing.T) {
	ctx := context.Background()
	s, snaps := newTestStore(t)

	admin, _ := s.UserByID(1)
	s.SetCurrentActor(ctx, &admin)
	s.SetCurrentActor(ctx, nil)

	_, ok := s.CurrentActor()
	assert.False(t, ok)

	reloaded := New(ctx, snaps, zap.NewNop())
	_, ok = reloaded.CurrentActor()
	assert.False(t, ok)
}

func TestTouchCurrentActorSwitchesActor(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	admin, _ := s.UserByID(1)
	s.SetCurrentActor(ctx, &admin)

	karim, _ := s.UserByID(2)
	s.TouchCurrentActor(ctx, karim)

	actor, ok := s.CurrentActor()
	require.True(t, ok)
	assert.Equal(t, int64(2), actor.ID)
}

func TestHistorySortedByTimestamp(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	base := time.Now()
	s.AppendHistory(ctx, domain.HistoryEvent{ID: "b", TicketID: 1, Action: domain.HistoryActionStatusChange, Timestamp: base.Add(time.Minute)})
	s.AppendHistory(ctx, domain.HistoryEvent{ID: "a", TicketID: 1, Action: domain.HistoryActionCreate, Timestamp: base})
	s.AppendHistory(ctx, domain.HistoryEvent{ID: "other", TicketID: 2, Action: domain.HistoryActionCreate, Timestamp: base})

	entries := s.History(1)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, 3, s.HistoryLen())
}

func TestTicketCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	created := s.AddTicket(ctx, domain.Ticket{
		Title:        "Shared slice",
		Status:       domain.TicketStatusTasks,
		DeveloperIDs: []int64{2},
	})

	got, ok := s.TicketByID(created.ID)
	require.True(t, ok)
	got.DeveloperIDs[0] = 99

	again, _ := s.TicketByID(created.ID)
	assert.Equal(t, []int64{2}, again.DeveloperIDs)
}
