// internal/routing/expertise.go
package routing

import (
	"math"

	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/models"
)

// yearsForFullWeight is the experience at which the level weight applies in
// full; fewer years scale it down linearly.
const yearsForFullWeight = 5.0

// ExpertiseScorer computes the relevance score for a candidate:
// weighted tag match, domain-expertise match and similar-ticket overlap.
type ExpertiseScorer struct {
	weights config.ScoringWeights
}

func NewExpertiseScorer(weights config.ScoringWeights) *ExpertiseScorer {
	return &ExpertiseScorer{weights: weights}
}

// Score computes the relevance factors for one candidate. The computation is
// pure; all inputs are already loaded.
func (s *ExpertiseScorer) Score(ticket *models.Ticket, candidate *models.Candidate, similar []models.SimilarTicket, agentsByID map[string]*models.Agent) models.RelevanceFactors {
	tags := normalizeTags(ticket.Tags)

	tagScore := 0.0
	if len(tags) > 0 {
		tagScore = math.Min(1, float64(candidate.TagMatchCount)/float64(len(tags)))
	}

	var domainMatch float64
	switch candidate.Type {
	case models.AssigneeTypeAgent:
		domainMatch = agentDomainMatch(candidate.Agent, tags)
	case models.AssigneeTypeTeam:
		domainMatch = teamDomainMatch(candidate.Team, tags, agentsByID)
	}

	overlap := similarOverlap(candidate, similar)

	relevance := s.weights.TagMatch*tagScore +
		s.weights.DomainMatch*domainMatch +
		s.weights.SimilarOverlap*overlap

	return models.RelevanceFactors{
		TagMatchCount:  candidate.TagMatchCount,
		TagMatchScore:  tagScore,
		DomainMatch:    domainMatch,
		SimilarOverlap: overlap,
		Relevance:      clamp01(relevance),
	}
}

// agentDomainMatch averages, over the ticket tags the agent's domains cover,
// the level weight scaled by min(1, years/5). Tags with no matching domain
// contribute nothing and do not dilute the average; no matched tags means 0.
func agentDomainMatch(agent *models.Agent, tags []string) float64 {
	if agent == nil || len(tags) == 0 {
		return 0
	}

	sum := 0.0
	matched := 0
	for _, tag := range tags {
		e, ok := agent.HasDomain(tag)
		if !ok {
			continue
		}
		matched++
		years := math.Min(1, math.Max(0, e.YearsExperience)/yearsForFullWeight)
		sum += e.Level.Weight() * years
	}
	if matched == 0 {
		return 0
	}
	return sum / float64(matched)
}

// teamDomainMatch averages the domain match of the team's active members.
func teamDomainMatch(team *models.Team, tags []string, agentsByID map[string]*models.Agent) float64 {
	if team == nil {
		return 0
	}

	sum := 0.0
	counted := 0
	for _, m := range team.ActiveMembers() {
		agent, ok := agentsByID[m.AgentID]
		if !ok {
			continue
		}
		sum += agentDomainMatch(agent, tags)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// similarOverlap is the fraction of similar resolved tickets owned by this
// candidate. No similar tickets (including index degradation) means 0.
func similarOverlap(candidate *models.Candidate, similar []models.SimilarTicket) float64 {
	if len(similar) == 0 {
		return 0
	}
	owned := 0
	for _, s := range similar {
		if s.OwnerID == candidate.ID && s.OwnerType == candidate.Type {
			owned++
		}
	}
	return float64(owned) / float64(len(similar))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
