// internal/routing/candidates.go
package routing

import (
	"context"
	"sort"
	"strings"

	"ticket-routing-workers/internal/models"
)

// TeamLister provides the active teams considered for routing.
type TeamLister interface {
	ListActive(ctx context.Context) ([]models.Team, error)
}

// AgentFetcher provides agent records with expertise loaded.
type AgentFetcher interface {
	GetByIDs(ctx context.Context, agentIDs []string) ([]models.Agent, error)
	ListActiveByDomains(ctx context.Context, domainNames []string) ([]models.Agent, error)
}

// CandidateGenerator builds the eligible team and agent candidate set for a
// ticket.
type CandidateGenerator struct {
	teams  TeamLister
	agents AgentFetcher

	// includeUnmatchedDomainAgents extends eligibility to active agents whose
	// knowledge domains match ticket tags even when none of their teams do.
	includeUnmatchedDomainAgents bool
}

func NewCandidateGenerator(teams TeamLister, agents AgentFetcher, includeUnmatchedDomainAgents bool) *CandidateGenerator {
	return &CandidateGenerator{
		teams:                        teams,
		agents:                       agents,
		includeUnmatchedDomainAgents: includeUnmatchedDomainAgents,
	}
}

// Generate returns team candidates (active teams sharing at least one tag)
// and agent candidates (active members of those teams, deduplicated).
// An empty result is a normal outcome, not an error.
func (g *CandidateGenerator) Generate(ctx context.Context, ticket *models.Ticket) ([]models.Candidate, error) {
	teams, err := g.teams.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	ticketTags := normalizeTags(ticket.Tags)

	var candidates []models.Candidate
	memberTagMatch := map[string]int{}
	var memberOrder []string

	for i := range teams {
		team := &teams[i]
		matches := tagOverlap(ticketTags, team.Tags)
		if matches == 0 {
			continue
		}

		candidates = append(candidates, models.Candidate{
			ID:            team.ID,
			Type:          models.AssigneeTypeTeam,
			TagMatchCount: matches,
			Team:          team,
		})

		for _, m := range team.ActiveMembers() {
			if _, seen := memberTagMatch[m.AgentID]; !seen {
				memberOrder = append(memberOrder, m.AgentID)
			}
			// An agent in several matching teams keeps the best tag match.
			if matches > memberTagMatch[m.AgentID] {
				memberTagMatch[m.AgentID] = matches
			}
		}
	}

	agents, err := g.agents.GetByIDs(ctx, memberOrder)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for i := range agents {
		agent := &agents[i]
		if !agent.IsActive || seen[agent.ID] {
			continue
		}
		seen[agent.ID] = true
		candidates = append(candidates, models.Candidate{
			ID:            agent.ID,
			Type:          models.AssigneeTypeAgent,
			TagMatchCount: memberTagMatch[agent.ID],
			Agent:         agent,
		})
	}

	if g.includeUnmatchedDomainAgents && len(ticketTags) > 0 {
		domainAgents, err := g.agents.ListActiveByDomains(ctx, ticketTags)
		if err != nil {
			return nil, err
		}
		for i := range domainAgents {
			agent := &domainAgents[i]
			if seen[agent.ID] {
				continue
			}
			seen[agent.ID] = true
			candidates = append(candidates, models.Candidate{
				ID:            agent.ID,
				Type:          models.AssigneeTypeAgent,
				TagMatchCount: 0,
				Agent:         agent,
			})
		}
	}

	// Stable candidate order keeps scoring deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Type != candidates[j].Type {
			return candidates[i].Type == models.AssigneeTypeTeam
		}
		return candidates[i].ID < candidates[j].ID
	})

	return candidates, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func tagOverlap(ticketTags, candidateTags []string) int {
	set := map[string]bool{}
	for _, t := range ticketTags {
		set[t] = true
	}
	count := 0
	for _, t := range normalizeTags(candidateTags) {
		if set[t] {
			count++
		}
	}
	return count
}
