package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metallic-erp/support-hub/internal/domain"
)

var testRules = AssignmentRules{ProgramIssueAssignee: "Karim", UnlockAssignee: "Mariam"}

func testDevelopers() []domain.User {
	return []domain.User{
		{ID: 2, Name: "Karim", Role: domain.RoleDeveloper},
		{ID: 3, Name: "Mariam", Role: domain.RoleDeveloper},
		{ID: 4, Name: "Mohamed", Role: domain.RoleDeveloper},
	}
}

func TestResolveAssigneeExplicitWins(t *testing.T) {
	explicit := int64(4)
	id, err := ResolveAssignee(domain.TicketTypeProgramIssue, &explicit, testDevelopers(), nil, testRules)
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
}

func TestResolveAssigneeExplicitUnknown(t *testing.T) {
	explicit := int64(42)
	_, err := ResolveAssignee(domain.TicketTypeProgramIssue, &explicit, testDevelopers(), nil, testRules)
	assert.ErrorIs(t, err, ErrUnknownAssignee)
}

func TestResolveAssigneeProgramIssueGoesToKarim(t *testing.T) {
	id, err := ResolveAssignee(domain.TicketTypeProgramIssue, nil, testDevelopers(), nil, testRules)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestResolveAssigneeUnlockGoesToMariam(t *testing.T) {
	id, err := ResolveAssignee(domain.TicketTypeUnlock, nil, testDevelopers(), nil, testRules)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestResolveAssigneeRoundRobinAdvances(t *testing.T) {
	// Rule names that match no developer fall through to round-robin.
	rules := AssignmentRules{}
	devs := []domain.User{
		{ID: 10, Name: "A", Role: domain.RoleDeveloper},
		{ID: 11, Name: "B", Role: domain.RoleDeveloper},
		{ID: 12, Name: "C", Role: domain.RoleDeveloper},
	}
	tickets := []domain.Ticket{
		{ID: 1, DeveloperIDs: []int64{10}},
		{ID: 2, DeveloperIDs: []int64{11}},
	}

	id, err := ResolveAssignee(domain.TicketTypeProgramIssue, nil, devs, tickets, rules)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
}

func TestResolveAssigneeRoundRobinWraps(t *testing.T) {
	devs := []domain.User{
		{ID: 10, Name: "A", Role: domain.RoleDeveloper},
		{ID: 11, Name: "B", Role: domain.RoleDeveloper},
	}
	tickets := []domain.Ticket{{ID: 7, DeveloperIDs: []int64{11}}}

	id, err := ResolveAssignee(domain.TicketTypeProgramIssue, nil, devs, tickets, AssignmentRules{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
}

func TestResolveAssigneeNoTicketsPicksSecondDeveloper(t *testing.T) {
	devs := []domain.User{
		{ID: 10, Name: "A", Role: domain.RoleDeveloper},
		{ID: 11, Name: "B", Role: domain.RoleDeveloper},
	}

	id, err := ResolveAssignee(domain.TicketTypeProgramIssue, nil, devs, nil, AssignmentRules{})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}

func TestResolveAssigneeDepartedDeveloperFallsBack(t *testing.T) {
	devs := []domain.User{
		{ID: 10, Name: "A", Role: domain.RoleDeveloper},
		{ID: 11, Name: "B", Role: domain.RoleDeveloper},
	}
	// Latest ticket is held by a developer who no longer exists.
	tickets := []domain.Ticket{{ID: 3, DeveloperIDs: []int64{99}}}

	id, err := ResolveAssignee(domain.TicketTypeProgramIssue, nil, devs, tickets, AssignmentRules{})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}

func TestResolveAssigneeSingleDeveloper(t *testing.T) {
	devs := []domain.User{{ID: 10, Name: "A", Role: domain.RoleDeveloper}}

	id, err := ResolveAssignee(domain.TicketTypeUnlock, nil, devs, nil, AssignmentRules{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
}

func TestResolveAssigneeNoDevelopers(t *testing.T) {
	_, err := ResolveAssignee(domain.TicketTypeProgramIssue, nil, nil, nil, testRules)
	assert.ErrorIs(t, err, ErrNoDevelopers)
}
