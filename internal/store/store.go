package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/domain"
)

// ErrEmailExists is returned when a user's email collides with an existing
// account (compared case-insensitively).
var ErrEmailExists = errors.New("email already registered")

// Store is the single source of truth for the four entity collections plus
// the current-actor session. It is constructed once at startup from the
// snapshot backend and injected by reference; every mutation re-serializes
// the touched collection through the Snapshotter before returning.
//
// The product model assumes one logical editor per snapshot; the mutex only
// keeps concurrent HTTP handlers from racing on the slices.
type Store struct {
	mu     sync.RWMutex
	logger *zap.Logger
	snaps  Snapshotter

	users    []domain.User
	tickets  []domain.Ticket
	messages []domain.ChatMessage
	history  []domain.HistoryEvent
	actor    *domain.User
}

// New loads each collection from its snapshot, falling back to the seed
// dataset (users) or an empty collection when the snapshot is absent or
// corrupt.
func New(ctx context.Context, snaps Snapshotter, logger *zap.Logger) *Store {
	s := &Store{logger: logger, snaps: snaps}

	if !loadCollection(ctx, snaps, logger, SnapshotKeyUsers, &s.users) || len(s.users) == 0 {
		s.users = seedUsers()
		s.persist(ctx, SnapshotKeyUsers, s.users)
	}
	loadCollection(ctx, snaps, logger, SnapshotKeyTickets, &s.tickets)
	loadCollection(ctx, snaps, logger, SnapshotKeyMessages, &s.messages)
	loadCollection(ctx, snaps, logger, SnapshotKeyHistory, &s.history)

	var actor domain.User
	if loadCollection(ctx, snaps, logger, SnapshotKeyCurrentActor, &actor) && actor.ID != 0 {
		s.actor = &actor
	}
	return s
}

func loadCollection[T any](ctx context.Context, snaps Snapshotter, logger *zap.Logger, key string, out *T) bool {
	data, err := snaps.Load(ctx, key)
	if err != nil {
		logger.Warn("snapshot load failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("snapshot corrupt, using fallback", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// persist serializes v under key. The in-memory mutation stays authoritative;
// a failed flush is logged, not propagated.
func (s *Store) persist(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("snapshot marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.snaps.Save(ctx, key, data); err != nil {
		s.logger.Error("snapshot save failed", zap.String("key", key), zap.Error(err))
	}
}

// Users returns a copy of all users in insertion order.
func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User(nil), s.users...)
}

// UserByID looks up a user.
func (s *Store) UserByID(id int64) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// UserByEmail looks up a user by email, case-insensitively.
func (s *Store) UserByEmail(email string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return domain.User{}, false
}

// Developers returns users with the Developer role, preserving insertion
// order. The assignment round-robin depends on this ordering.
func (s *Store) Developers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var devs []domain.User
	for _, u := range s.users {
		if u.Role == domain.RoleDeveloper {
			devs = append(devs, u)
		}
	}
	return devs
}

// AddUser assigns the next id and appends the user. Email uniqueness is
// enforced here so no caller can bypass it.
func (s *Store) AddUser(ctx context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.User{}, ErrEmailExists
		}
	}
	user.ID = nextID(len(s.users), func(i int) int64 { return s.users[i].ID })
	s.users = append(s.users, user)
	s.persist(ctx, SnapshotKeyUsers, s.users)
	return user, nil
}

// UpdateUser replaces the stored user with the same id. Returns false when
// the id is unknown, ErrEmailExists when the new email collides with another
// account.
func (s *Store) UpdateUser(ctx context.Context, user domain.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.ID != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return false, ErrEmailExists
		}
	}
	for i := range s.users {
		if s.users[i].ID == user.ID {
			s.users[i] = user
			if s.actor != nil && s.actor.ID == user.ID {
				actor := user
				s.actor = &actor
				s.persist(ctx, SnapshotKeyCurrentActor, s.actor)
			}
			s.persist(ctx, SnapshotKeyUsers, s.users)
			return true, nil
		}
	}
	return false, nil
}

// Tickets returns a copy of all tickets.
func (s *Store) Tickets() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTickets(s.tickets)
}

// TicketByID looks up a ticket.
func (s *Store) TicketByID(id int64) (domain.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		if t.ID == id {
			return copyTicket(t), true
		}
	}
	return domain.Ticket{}, false
}

// LatestTicket returns the ticket with the highest id.
func (s *Store) LatestTicket() (domain.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest domain.Ticket
	found := false
	for _, t := range s.tickets {
		if !found || t.ID > latest.ID {
			latest = t
			found = true
		}
	}
	if !found {
		return domain.Ticket{}, false
	}
	return copyTicket(latest), true
}

// AddTicket assigns the next id and appends the ticket.
func (s *Store) AddTicket(ctx context.Context, ticket domain.Ticket) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket.ID = nextID(len(s.tickets), func(i int) int64 { return s.tickets[i].ID })
	s.tickets = append(s.tickets, copyTicket(ticket))
	s.persist(ctx, SnapshotKeyTickets, s.tickets)
	return ticket
}

// UpdateTicket replaces the stored ticket with the same id. Returns false
// when the id is unknown.
func (s *Store) UpdateTicket(ctx context.Context, ticket domain.Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == ticket.ID {
			s.tickets[i] = copyTicket(ticket)
			s.persist(ctx, SnapshotKeyTickets, s.tickets)
			return true
		}
	}
	return false
}

// Messages returns the chat thread of a ticket in append order.
func (s *Store) Messages(ticketID int64) []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var msgs []domain.ChatMessage
	for _, m := range s.messages {
		if m.TicketID == ticketID {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// AddMessage assigns the next id and appends the message.
func (s *Store) AddMessage(ctx context.Context, msg domain.ChatMessage) domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = nextID(len(s.messages), func(i int) int64 { return s.messages[i].ID })
	s.messages = append(s.messages, msg)
	s.persist(ctx, SnapshotKeyMessages, s.messages)
	return msg
}

// History returns the audit trail of a ticket sorted by timestamp. The sort
// is stable so same-instant events keep their append order.
func (s *Store) History(ticketID int64) []domain.HistoryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []domain.HistoryEvent
	for _, e := range s.history {
		if e.TicketID == ticketID {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

// HistoryLen reports the total number of recorded events.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// AppendHistory appends an immutable audit event. Events are never edited or
// removed.
func (s *Store) AppendHistory(ctx context.Context, event domain.HistoryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, event)
	s.persist(ctx, SnapshotKeyHistory, s.history)
}

// CurrentActor returns the logged-in user, if any.
func (s *Store) CurrentActor() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.actor == nil {
		return domain.User{}, false
	}
	return *s.actor, true
}

// SetCurrentActor persists or clears the actor session independently of the
// entity collections.
func (s *Store) SetCurrentActor(ctx context.Context, user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.actor = nil
		if err := s.snaps.Delete(ctx, SnapshotKeyCurrentActor); err != nil {
			s.logger.Error("snapshot delete failed", zap.String("key", SnapshotKeyCurrentActor), zap.Error(err))
		}
		return
	}
	actor := *user
	s.actor = &actor
	s.persist(ctx, SnapshotKeyCurrentActor, s.actor)
}

// TouchCurrentActor makes the given user the active actor unless they
// already are. Called per authenticated request so audit attribution follows
// whoever is acting, not just whoever logged in last.
func (s *Store) TouchCurrentActor(ctx context.Context, user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actor != nil && s.actor.ID == user.ID {
		return
	}
	actor := user
	s.actor = &actor
	s.persist(ctx, SnapshotKeyCurrentActor, s.actor)
}

// nextID implements the store's max(ids)+1 generation. Ids are never reused
// because entities are never deleted.
func nextID(n int, id func(int) int64) int64 {
	var max int64
	for i := 0; i < n; i++ {
		if v := id(i); v > max {
			max = v
		}
	}
	return max + 1
}

func copyTicket(t domain.Ticket) domain.Ticket {
	t.DeveloperIDs = append([]int64(nil), t.DeveloperIDs...)
	return t
}

func copyTickets(tickets []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = copyTicket(t)
	}
	return out
}
