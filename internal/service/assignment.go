package service

import (
	"errors"

	"github.com/metallic-erp/support-hub/internal/domain"
)

// ErrNoDevelopers is returned when no developer exists to take a new ticket.
var ErrNoDevelopers = errors.New("no developers available")

// ErrUnknownAssignee is returned when an explicitly requested assignee does
// not resolve to an existing developer.
var ErrUnknownAssignee = errors.New("assigned developer does not exist")

// AssignmentRules names the developers targeted by the per-type rules before
// the round-robin fallback applies.
type AssignmentRules struct {
	ProgramIssueAssignee string
	UnlockAssignee       string
}

// ResolveAssignee selects exactly one developer id for a new ticket. Pure
// selection: the caller persists the result.
//
// Priority: explicit assignee, then the per-type name rule, then round-robin
// seeded from the most recently created ticket's first assignee. With no
// prior ticket, or when the prior assignee is no longer a developer, the
// second developer (index 1 mod count) is picked.
func ResolveAssignee(ticketType domain.TicketType, explicit *int64, developers []domain.User, tickets []domain.Ticket, rules AssignmentRules) (int64, error) {
	if len(developers) == 0 {
		return 0, ErrNoDevelopers
	}

	if explicit != nil {
		for _, dev := range developers {
			if dev.ID == *explicit {
				return dev.ID, nil
			}
		}
		return 0, ErrUnknownAssignee
	}

	switch ticketType {
	case domain.TicketTypeProgramIssue:
		if dev, ok := developerByName(developers, rules.ProgramIssueAssignee); ok {
			return dev.ID, nil
		}
	case domain.TicketTypeUnlock:
		if dev, ok := developerByName(developers, rules.UnlockAssignee); ok {
			return dev.ID, nil
		}
	}

	lastDevID := developers[0].ID
	if last, ok := latestTicket(tickets); ok && len(last.DeveloperIDs) > 0 {
		lastDevID = last.DeveloperIDs[0]
	}
	lastIndex := -1
	for i, dev := range developers {
		if dev.ID == lastDevID {
			lastIndex = i
			break
		}
	}
	nextIndex := 1 % len(developers)
	if lastIndex >= 0 {
		nextIndex = (lastIndex + 1) % len(developers)
	}
	return developers[nextIndex].ID, nil
}

func developerByName(developers []domain.User, name string) (domain.User, bool) {
	if name == "" {
		return domain.User{}, false
	}
	for _, dev := range developers {
		if dev.Name == name {
			return dev, true
		}
	}
	return domain.User{}, false
}

func latestTicket(tickets []domain.Ticket) (domain.Ticket, bool) {
	var latest domain.Ticket
	found := false
	for _, t := range tickets {
		if !found || t.ID > latest.ID {
			latest = t
			found = true
		}
	}
	return latest, found
}
