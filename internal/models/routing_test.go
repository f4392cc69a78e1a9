// internal/models/routing_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFactors() *RoutingFactors {
	return &RoutingFactors{
		Relevance:  RelevanceFactors{TagMatchCount: 2, TagMatchScore: 1, DomainMatch: 1, SimilarOverlap: 1, Relevance: 1},
		Workload:   WorkloadFactors{OpenTickets: 2, Threshold: 10, Capacity: 0.8},
		Alpha:      0.7,
		FinalScore: 0.94,
	}
}

func TestNewRoutingDecision(t *testing.T) {
	decision, err := NewRoutingDecision("dec-1", "ticket-1", "team-a", AssigneeTypeTeam, 0.94, validFactors())
	require.NoError(t, err)

	assert.Equal(t, "dec-1", decision.ID)
	assert.Equal(t, OutcomeAssigned, decision.Outcome)
	assert.Equal(t, "team-a", decision.AssigneeID)
	assert.Equal(t, AssigneeTypeTeam, decision.AssigneeType)
	assert.InDelta(t, 0.94, decision.Confidence, 1e-9)
	assert.False(t, decision.CreatedAt.IsZero())
}

func TestNewRoutingDecision_ConfidenceBounds(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantErr    bool
	}{
		{name: "zero", confidence: 0},
		{name: "one", confidence: 1},
		{name: "negative", confidence: -0.1, wantErr: true},
		{name: "above one", confidence: 1.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRoutingDecision("dec-1", "ticket-1", "team-a", AssigneeTypeTeam, tt.confidence, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRoutingDecision_ValidatesFactors(t *testing.T) {
	factors := validFactors()
	factors.Workload.Threshold = 0

	_, err := NewRoutingDecision("dec-1", "ticket-1", "team-a", AssigneeTypeTeam, 0.5, factors)
	assert.Error(t, err)
}

func TestNewNoCandidateDecision(t *testing.T) {
	decision := NewNoCandidateDecision("dec-2", "ticket-2")

	assert.Equal(t, OutcomeNoEligibleCandidates, decision.Outcome)
	assert.Empty(t, decision.AssigneeID)
	assert.Zero(t, decision.Confidence)
	assert.Nil(t, decision.Factors)
}

func TestRoutingFactors_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RoutingFactors)
		wantErr bool
	}{
		{name: "valid", mutate: func(f *RoutingFactors) {}},
		{name: "final score above one", mutate: func(f *RoutingFactors) { f.FinalScore = 1.2 }, wantErr: true},
		{name: "negative final score", mutate: func(f *RoutingFactors) { f.FinalScore = -0.1 }, wantErr: true},
		{name: "alpha above one", mutate: func(f *RoutingFactors) { f.Alpha = 2 }, wantErr: true},
		{name: "zero threshold", mutate: func(f *RoutingFactors) { f.Workload.Threshold = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := validFactors()
			tt.mutate(factors)

			err := factors.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
