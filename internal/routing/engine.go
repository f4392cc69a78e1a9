// internal/routing/engine.go
package routing

import (
	"math"
	"sort"

	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/models"
)

// DecisionEngine blends relevance and capacity into a final score and picks
// the winner deterministically.
type DecisionEngine struct {
	alpha           float64
	epsilon         float64
	maxAlternatives int
}

func NewDecisionEngine(cfg config.RoutingConfig) *DecisionEngine {
	return &DecisionEngine{
		alpha:           cfg.Alpha,
		epsilon:         cfg.Epsilon,
		maxAlternatives: cfg.MaxAlternatives,
	}
}

// FinalScore blends a candidate's relevance and capacity.
func (e *DecisionEngine) FinalScore(relevance, capacity float64) float64 {
	return e.alpha*relevance + (1-e.alpha)*capacity
}

// Rank orders scored candidates by final score descending. Candidates whose
// scores are within epsilon are ordered by lexicographically smaller id, so
// identical inputs always produce identical rankings.
func (e *DecisionEngine) Rank(scored []models.ScoredCandidate) []models.ScoredCandidate {
	ranked := make([]models.ScoredCandidate, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if math.Abs(a.Final-b.Final) <= e.epsilon {
			return a.Candidate.ID < b.Candidate.ID
		}
		return a.Final > b.Final
	})

	return ranked
}

// Decide produces the recommendation for a ticket from its scored candidates.
// An empty candidate set returns nil: the caller records the terminal
// NO_ELIGIBLE_CANDIDATES outcome.
func (e *DecisionEngine) Decide(ticket *models.Ticket, scored []models.ScoredCandidate, similar []models.SimilarTicket) *models.Recommendation {
	if len(scored) == 0 {
		return nil
	}

	ranked := e.Rank(scored)
	winner := ranked[0]

	similarIDs := make([]string, 0, len(similar))
	for _, s := range similar {
		similarIDs = append(similarIDs, s.TicketID)
	}

	var alternatives []models.Alternative
	for _, alt := range ranked[1:] {
		if len(alternatives) == e.maxAlternatives {
			break
		}
		alternatives = append(alternatives, models.Alternative{
			AssigneeID:   alt.Candidate.ID,
			AssigneeType: alt.Candidate.Type,
			Score:        alt.Final,
		})
	}

	return &models.Recommendation{
		TicketID:     ticket.ID,
		AssigneeID:   winner.Candidate.ID,
		AssigneeType: winner.Candidate.Type,
		Confidence:   winner.Final,
		Factors: &models.RoutingFactors{
			Relevance:        winner.Relevance,
			Workload:         winner.Workload,
			SimilarTicketIDs: similarIDs,
			Alpha:            e.alpha,
			FinalScore:       winner.Final,
		},
		Alternatives: alternatives,
	}
}
