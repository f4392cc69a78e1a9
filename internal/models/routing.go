// internal/models/routing.go
package models

import (
	"fmt"
	"time"
)

// RoutingOutcome is the terminal result of one routing pass for a ticket.
type RoutingOutcome string

const (
	OutcomeAssigned             RoutingOutcome = "ASSIGNED"
	OutcomeNoEligibleCandidates RoutingOutcome = "NO_ELIGIBLE_CANDIDATES"
	OutcomeSkipped              RoutingOutcome = "SKIPPED"
)

// RelevanceFactors records the expertise sub-scores that produced a
// candidate's relevance score.
type RelevanceFactors struct {
	TagMatchCount  int     `json:"tagMatchCount"`
	TagMatchScore  float64 `json:"tagMatchScore"`
	DomainMatch    float64 `json:"domainMatch"`
	SimilarOverlap float64 `json:"similarOverlap"`
	Relevance      float64 `json:"relevance"`
}

// WorkloadFactors records the capacity sub-scores for a candidate.
type WorkloadFactors struct {
	OpenTickets   int     `json:"openTickets"`
	AvgOpen       float64 `json:"avgOpen,omitempty"`
	ActiveMembers int     `json:"activeMembers,omitempty"`
	Threshold     int     `json:"threshold"`
	Capacity      float64 `json:"capacity"`
}

// RoutingFactors is the typed audit record persisted with every decision.
type RoutingFactors struct {
	Relevance        RelevanceFactors `json:"relevance"`
	Workload         WorkloadFactors  `json:"workload"`
	SimilarTicketIDs []string         `json:"similarTicketIds,omitempty"`
	Alpha            float64          `json:"alpha"`
	FinalScore       float64          `json:"finalScore"`
}

// Validate checks the factor record invariants.
func (f *RoutingFactors) Validate() error {
	if f.FinalScore < 0 || f.FinalScore > 1 {
		return fmt.Errorf("final score %f outside [0,1]", f.FinalScore)
	}
	if f.Alpha < 0 || f.Alpha > 1 {
		return fmt.Errorf("alpha %f outside [0,1]", f.Alpha)
	}
	if f.Workload.Threshold <= 0 {
		return fmt.Errorf("workload threshold must be positive, got %d", f.Workload.Threshold)
	}
	return nil
}

// RoutingDecision is the append-only record of one routing outcome.
// AssigneeID is empty when the outcome is NO_ELIGIBLE_CANDIDATES.
type RoutingDecision struct {
	ID           string          `json:"id"`
	TicketID     string          `json:"ticketId"`
	AssigneeID   string          `json:"assigneeId,omitempty"`
	AssigneeType AssigneeType    `json:"assigneeType,omitempty"`
	Outcome      RoutingOutcome  `json:"outcome"`
	Confidence   float64         `json:"confidence"`
	Factors      *RoutingFactors `json:"factors,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewRoutingDecision builds a validated assignment decision.
func NewRoutingDecision(id, ticketID, assigneeID string, assigneeType AssigneeType, confidence float64, factors *RoutingFactors) (*RoutingDecision, error) {
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %f outside [0,1]", confidence)
	}
	if factors != nil {
		if err := factors.Validate(); err != nil {
			return nil, err
		}
	}
	return &RoutingDecision{
		ID:           id,
		TicketID:     ticketID,
		AssigneeID:   assigneeID,
		AssigneeType: assigneeType,
		Outcome:      OutcomeAssigned,
		Confidence:   confidence,
		Factors:      factors,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NewNoCandidateDecision builds the terminal no-candidate record for a ticket.
func NewNoCandidateDecision(id, ticketID string) *RoutingDecision {
	return &RoutingDecision{
		ID:        id,
		TicketID:  ticketID,
		Outcome:   OutcomeNoEligibleCandidates,
		CreatedAt: time.Now().UTC(),
	}
}

// SimilarTicket is one ranked hit from the vector index.
type SimilarTicket struct {
	TicketID  string       `json:"ticketId"`
	Score     float64      `json:"score"`
	OwnerID   string       `json:"ownerId,omitempty"`
	OwnerType AssigneeType `json:"ownerType,omitempty"`
}

// Candidate is a team or agent under consideration for a ticket.
type Candidate struct {
	ID            string       `json:"id"`
	Type          AssigneeType `json:"type"`
	TagMatchCount int          `json:"tagMatchCount"`

	// Team is set for team candidates, Agent for agent candidates.
	Team  *Team  `json:"-"`
	Agent *Agent `json:"-"`
}

// ScoredCandidate carries a candidate together with its computed scores.
type ScoredCandidate struct {
	Candidate Candidate        `json:"candidate"`
	Relevance RelevanceFactors `json:"relevance"`
	Workload  WorkloadFactors  `json:"workload"`
	Final     float64          `json:"final"`
}

// Alternative is a runner-up candidate in a recommendation.
type Alternative struct {
	AssigneeID   string       `json:"assigneeId"`
	AssigneeType AssigneeType `json:"assigneeType"`
	Score        float64      `json:"score"`
}

// Recommendation is the ranked routing result for a ticket before recording.
type Recommendation struct {
	TicketID     string          `json:"ticketId"`
	AssigneeID   string          `json:"assigneeId"`
	AssigneeType AssigneeType    `json:"assigneeType"`
	Confidence   float64         `json:"confidence"`
	Factors      *RoutingFactors `json:"factors"`
	Alternatives []Alternative   `json:"alternatives,omitempty"`
}
