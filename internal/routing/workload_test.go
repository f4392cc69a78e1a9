// internal/routing/workload_test.go
package routing

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	calls  [][]string
}

func (f *fakeCounter) CountOpenByAgents(ctx context.Context, agentIDs []string) (map[string]int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, agentIDs)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]int, len(agentIDs))
	for _, id := range agentIDs {
		out[id] = f.counts[id]
	}
	return out, nil
}

func TestWorkloadAnalyzer_AgentCapacity(t *testing.T) {
	analyzer := NewWorkloadAnalyzer(&fakeCounter{}, nil, testRoutingConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name     string
		open     int
		expected float64
	}{
		{name: "no open tickets", open: 0, expected: 1.0},
		{name: "half loaded", open: 5, expected: 0.5},
		{name: "at threshold", open: 10, expected: 0},
		{name: "over threshold clamps to zero", open: 25, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &models.Agent{ID: "agent-1"}
			factors := analyzer.AgentCapacity("org-1", agent, map[string]int{"agent-1": tt.open})

			assert.Equal(t, tt.open, factors.OpenTickets)
			assert.Equal(t, 10, factors.Threshold)
			assert.InDelta(t, tt.expected, factors.Capacity, 1e-9)
		})
	}
}

func TestWorkloadAnalyzer_AgentCapacityMonotonic(t *testing.T) {
	analyzer := NewWorkloadAnalyzer(&fakeCounter{}, nil, testRoutingConfig(), logger.NewTestLogger(t))
	agent := &models.Agent{ID: "agent-1"}

	prev := 2.0
	for open := 0; open <= 12; open++ {
		factors := analyzer.AgentCapacity("org-1", agent, map[string]int{"agent-1": open})
		assert.LessOrEqual(t, factors.Capacity, prev, "capacity must not increase with load")
		prev = factors.Capacity
	}
}

func TestWorkloadAnalyzer_OrgThresholdOverride(t *testing.T) {
	cfg := testRoutingConfig()
	cfg.WorkloadThresholds["org-big"] = 20
	analyzer := NewWorkloadAnalyzer(&fakeCounter{}, nil, cfg, logger.NewTestLogger(t))
	agent := &models.Agent{ID: "agent-1"}

	factors := analyzer.AgentCapacity("org-big", agent, map[string]int{"agent-1": 10})
	assert.Equal(t, 20, factors.Threshold)
	assert.InDelta(t, 0.5, factors.Capacity, 1e-9)

	factors = analyzer.AgentCapacity("org-other", agent, map[string]int{"agent-1": 10})
	assert.Equal(t, 10, factors.Threshold)
	assert.InDelta(t, 0, factors.Capacity, 1e-9)
}

func TestWorkloadAnalyzer_TeamCapacity(t *testing.T) {
	analyzer := NewWorkloadAnalyzer(&fakeCounter{}, nil, testRoutingConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name     string
		members  []models.TeamMember
		counts   map[string]int
		expected float64
	}{
		{
			name: "two members with light load",
			members: []models.TeamMember{
				{AgentID: "agent-1", IsActive: true},
				{AgentID: "agent-2", IsActive: true},
			},
			counts:   map[string]int{"agent-1": 2, "agent-2": 2},
			expected: 0.8, // avg 2 of 10, full size factor
		},
		{
			name: "single active member gets size penalty",
			members: []models.TeamMember{
				{AgentID: "agent-1", IsActive: true},
				{AgentID: "agent-2", IsActive: false},
			},
			counts:   map[string]int{"agent-1": 0},
			expected: 0.5, // load 1.0 * size 0.5
		},
		{
			name: "saturated team",
			members: []models.TeamMember{
				{AgentID: "agent-1", IsActive: true},
				{AgentID: "agent-2", IsActive: true},
			},
			counts:   map[string]int{"agent-1": 10, "agent-2": 12},
			expected: 0,
		},
		{
			name:     "no active members",
			members:  []models.TeamMember{{AgentID: "agent-1", IsActive: false}},
			counts:   map[string]int{},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := &models.Team{ID: "team-a", Members: tt.members, IsActive: true}
			factors := analyzer.TeamCapacity("org-1", team, tt.counts)
			assert.InDelta(t, tt.expected, factors.Capacity, 1e-9)
		})
	}
}

func TestWorkloadAnalyzer_OpenCountsWithoutCache(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int{"agent-1": 3, "agent-2": 0}}
	analyzer := NewWorkloadAnalyzer(counter, nil, testRoutingConfig(), logger.NewTestLogger(t))

	counts, err := analyzer.OpenCounts(context.Background(), []string{"agent-1", "agent-2"})
	require.NoError(t, err)

	assert.Equal(t, 3, counts["agent-1"])
	assert.Equal(t, 0, counts["agent-2"])
	require.Len(t, counter.calls, 1)
	assert.Equal(t, []string{"agent-1", "agent-2"}, counter.calls[0])
}

func TestWorkloadAnalyzer_OpenCountsServesCacheHits(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := &database.RedisClient{Client: client}
	counter := &fakeCounter{counts: map[string]int{"agent-2": 7}}
	analyzer := NewWorkloadAnalyzer(counter, cache, testRoutingConfig(), logger.NewTestLogger(t))

	mock.ExpectGet("workload:open:agent-1").SetVal("4")
	mock.ExpectGet("workload:open:agent-2").RedisNil()
	mock.ExpectSet("workload:open:agent-2", "7", 30*time.Second).SetVal("OK")

	counts, err := analyzer.OpenCounts(context.Background(), []string{"agent-1", "agent-2"})
	require.NoError(t, err)

	assert.Equal(t, 4, counts["agent-1"])
	assert.Equal(t, 7, counts["agent-2"])

	// Only the cache miss reaches the database.
	require.Len(t, counter.calls, 1)
	assert.Equal(t, []string{"agent-2"}, counter.calls[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkloadAnalyzer_OpenCountsIgnoresCorruptCacheValue(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := &database.RedisClient{Client: client}
	counter := &fakeCounter{counts: map[string]int{"agent-1": 2}}
	analyzer := NewWorkloadAnalyzer(counter, cache, testRoutingConfig(), logger.NewTestLogger(t))

	mock.ExpectGet("workload:open:agent-1").SetVal("not-a-number")
	mock.ExpectSet("workload:open:agent-1", "2", 30*time.Second).SetVal("OK")

	counts, err := analyzer.OpenCounts(context.Background(), []string{"agent-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts["agent-1"])
	require.Len(t, counter.calls, 1)
}

func TestWorkloadAnalyzer_OpenCountsPropagatesCounterError(t *testing.T) {
	counter := &fakeCounter{err: assert.AnError}
	analyzer := NewWorkloadAnalyzer(counter, nil, testRoutingConfig(), logger.NewTestLogger(t))

	_, err := analyzer.OpenCounts(context.Background(), []string{"agent-1"})
	assert.Error(t, err)
}

func TestWorkloadAnalyzer_CacheTTLFromConfig(t *testing.T) {
	cfg := testRoutingConfig()
	cfg.WorkloadCacheTTL = 5000
	analyzer := NewWorkloadAnalyzer(&fakeCounter{}, nil, cfg, logger.NewTestLogger(t))
	assert.Equal(t, 5*time.Second, analyzer.ttl)
}
