// internal/routing/candidates_test.go
package routing

import (
	"context"
	"testing"

	"ticket-routing-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTeamLister struct {
	teams []models.Team
	err   error
}

func (f *fakeTeamLister) ListActive(ctx context.Context) ([]models.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.teams, nil
}

type fakeAgentFetcher struct {
	agents       map[string]models.Agent
	domainAgents []models.Agent
	err          error
}

func (f *fakeAgentFetcher) GetByIDs(ctx context.Context, agentIDs []string) ([]models.Agent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Agent
	for _, id := range agentIDs {
		if a, ok := f.agents[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAgentFetcher) ListActiveByDomains(ctx context.Context, domainNames []string) ([]models.Agent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.domainAgents, nil
}

func activeAgent(id string) models.Agent {
	return models.Agent{ID: id, OrganizationID: "org-1", IsActive: true}
}

func TestCandidateGenerator_TeamsAndMembers(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{
			ID:   "team-a",
			Tags: []string{"network", "vpn"},
			Members: []models.TeamMember{
				{AgentID: "agent-1", IsActive: true},
				{AgentID: "agent-2", IsActive: true},
			},
			IsActive: true,
		},
		{
			ID:   "team-b",
			Tags: []string{"billing"},
			Members: []models.TeamMember{
				{AgentID: "agent-3", IsActive: true},
			},
			IsActive: true,
		},
	}}
	agents := &fakeAgentFetcher{agents: map[string]models.Agent{
		"agent-1": activeAgent("agent-1"),
		"agent-2": activeAgent("agent-2"),
		"agent-3": activeAgent("agent-3"),
	}}
	gen := NewCandidateGenerator(teams, agents, false)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network"}, Status: models.TicketStatusOpen}
	candidates, err := gen.Generate(context.Background(), ticket)
	require.NoError(t, err)

	// team-b shares no tags; neither it nor its members are candidates.
	require.Len(t, candidates, 3)
	assert.Equal(t, "team-a", candidates[0].ID)
	assert.Equal(t, models.AssigneeTypeTeam, candidates[0].Type)
	assert.Equal(t, 1, candidates[0].TagMatchCount)
	assert.Equal(t, "agent-1", candidates[1].ID)
	assert.Equal(t, "agent-2", candidates[2].ID)
}

func TestCandidateGenerator_NoMatchingTeams(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{ID: "team-b", Tags: []string{"billing"}, IsActive: true},
	}}
	gen := NewCandidateGenerator(teams, &fakeAgentFetcher{}, false)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network"}, Status: models.TicketStatusOpen}
	candidates, err := gen.Generate(context.Background(), ticket)

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestCandidateGenerator_TagMatchingNormalizesCase(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{ID: "team-a", Tags: []string{"Network", " VPN "}, IsActive: true},
	}}
	gen := NewCandidateGenerator(teams, &fakeAgentFetcher{}, false)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network", "vpn"}, Status: models.TicketStatusOpen}
	candidates, err := gen.Generate(context.Background(), ticket)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 2, candidates[0].TagMatchCount)
}

func TestCandidateGenerator_MemberInMultipleTeamsKeepsBestMatch(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{
			ID:       "team-a",
			Tags:     []string{"network"},
			Members:  []models.TeamMember{{AgentID: "agent-1", IsActive: true}},
			IsActive: true,
		},
		{
			ID:       "team-b",
			Tags:     []string{"network", "vpn"},
			Members:  []models.TeamMember{{AgentID: "agent-1", IsActive: true}},
			IsActive: true,
		},
	}}
	agents := &fakeAgentFetcher{agents: map[string]models.Agent{
		"agent-1": activeAgent("agent-1"),
	}}
	gen := NewCandidateGenerator(teams, agents, false)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network", "vpn"}, Status: models.TicketStatusOpen}
	candidates, err := gen.Generate(context.Background(), ticket)
	require.NoError(t, err)

	require.Len(t, candidates, 3)
	var agentCandidate *models.Candidate
	for i := range candidates {
		if candidates[i].Type == models.AssigneeTypeAgent {
			agentCandidate = &candidates[i]
		}
	}
	require.NotNil(t, agentCandidate)
	assert.Equal(t, "agent-1", agentCandidate.ID)
	assert.Equal(t, 2, agentCandidate.TagMatchCount)
}

func TestCandidateGenerator_InactiveAndMissingAgentsExcluded(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{
			ID:   "team-a",
			Tags: []string{"network"},
			Members: []models.TeamMember{
				{AgentID: "agent-1", IsActive: true},
				{AgentID: "agent-2", IsActive: true}, // inactive in the directory
				{AgentID: "agent-3", IsActive: false},
				{AgentID: "agent-missing", IsActive: true},
			},
			IsActive: true,
		},
	}}
	inactive := activeAgent("agent-2")
	inactive.IsActive = false
	agents := &fakeAgentFetcher{agents: map[string]models.Agent{
		"agent-1": activeAgent("agent-1"),
		"agent-2": inactive,
	}}
	gen := NewCandidateGenerator(teams, agents, false)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network"}, Status: models.TicketStatusOpen}
	candidates, err := gen.Generate(context.Background(), ticket)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "team-a", candidates[0].ID)
	assert.Equal(t, "agent-1", candidates[1].ID)
}

func TestCandidateGenerator_DomainAgentsBehindFlag(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{
			ID:       "team-a",
			Tags:     []string{"network"},
			Members:  []models.TeamMember{{AgentID: "agent-1", IsActive: true}},
			IsActive: true,
		},
	}}
	domainAgent := activeAgent("agent-9")
	domainAgent.Expertise = []models.Expertise{
		{DomainName: "network", Level: models.ExpertiseLevelExpert, YearsExperience: 5},
	}
	agents := &fakeAgentFetcher{
		agents:       map[string]models.Agent{"agent-1": activeAgent("agent-1")},
		domainAgents: []models.Agent{domainAgent},
	}

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network"}, Status: models.TicketStatusOpen}

	t.Run("flag disabled", func(t *testing.T) {
		gen := NewCandidateGenerator(teams, agents, false)
		candidates, err := gen.Generate(context.Background(), ticket)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
	})

	t.Run("flag enabled", func(t *testing.T) {
		gen := NewCandidateGenerator(teams, agents, true)
		candidates, err := gen.Generate(context.Background(), ticket)
		require.NoError(t, err)
		require.Len(t, candidates, 3)

		last := candidates[len(candidates)-1]
		assert.Equal(t, "agent-9", last.ID)
		assert.Equal(t, models.AssigneeTypeAgent, last.Type)
		assert.Equal(t, 0, last.TagMatchCount)
	})
}

func TestCandidateGenerator_DomainAgentNotDuplicated(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{
			ID:       "team-a",
			Tags:     []string{"network"},
			Members:  []models.TeamMember{{AgentID: "agent-1", IsActive: true}},
			IsActive: true,
		},
	}}
	agents := &fakeAgentFetcher{
		agents:       map[string]models.Agent{"agent-1": activeAgent("agent-1")},
		domainAgents: []models.Agent{activeAgent("agent-1")},
	}
	gen := NewCandidateGenerator(teams, agents, true)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network"}, Status: models.TicketStatusOpen}
	candidates, err := gen.Generate(context.Background(), ticket)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, c := range candidates {
		seen[c.ID]++
	}
	assert.Equal(t, 1, seen["agent-1"])
}

func TestCandidateGenerator_StableOrder(t *testing.T) {
	teams := &fakeTeamLister{teams: []models.Team{
		{ID: "team-z", Tags: []string{"network"}, IsActive: true},
		{ID: "team-a", Tags: []string{"network"}, IsActive: true},
	}}
	gen := NewCandidateGenerator(teams, &fakeAgentFetcher{}, false)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network"}, Status: models.TicketStatusOpen}

	first, err := gen.Generate(context.Background(), ticket)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "team-a", first[0].ID)
	assert.Equal(t, "team-z", first[1].ID)

	for i := 0; i < 5; i++ {
		again, err := gen.Generate(context.Background(), ticket)
		require.NoError(t, err)
		for j := range first {
			assert.Equal(t, first[j].ID, again[j].ID)
		}
	}
}

func TestCandidateGenerator_ListerErrorPropagates(t *testing.T) {
	gen := NewCandidateGenerator(&fakeTeamLister{err: assert.AnError}, &fakeAgentFetcher{}, false)

	ticket := &models.Ticket{ID: "ticket-1", Tags: []string{"network"}, Status: models.TicketStatusOpen}
	_, err := gen.Generate(context.Background(), ticket)
	assert.Error(t, err)
}
