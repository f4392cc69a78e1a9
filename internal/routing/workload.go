// internal/routing/workload.go
package routing

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/models"
)

// OpenTicketCounter supplies open-ticket counts per agent.
type OpenTicketCounter interface {
	CountOpenByAgents(ctx context.Context, agentIDs []string) (map[string]int, error)
}

// WorkloadAnalyzer computes capacity scores from current open-ticket counts.
// Counts are read through a short-TTL Redis cache in front of Postgres.
type WorkloadAnalyzer struct {
	counter OpenTicketCounter
	cache   *database.RedisClient
	cfg     config.RoutingConfig
	ttl     time.Duration
	logger  logger.Logger
}

func NewWorkloadAnalyzer(counter OpenTicketCounter, cache *database.RedisClient, cfg config.RoutingConfig, log logger.Logger) *WorkloadAnalyzer {
	return &WorkloadAnalyzer{
		counter: counter,
		cache:   cache,
		cfg:     cfg,
		ttl:     config.GetDuration(cfg.WorkloadCacheTTL),
		logger:  log,
	}
}

func workloadCacheKey(agentID string) string {
	return fmt.Sprintf("workload:open:%s", agentID)
}

// OpenCounts returns open-ticket counts for the given agents, serving cache
// hits from Redis and backfilling misses from the database.
func (w *WorkloadAnalyzer) OpenCounts(ctx context.Context, agentIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(agentIDs))
	var misses []string

	for _, id := range agentIDs {
		if w.cache == nil {
			misses = append(misses, id)
			continue
		}
		val, err := w.cache.Get(ctx, workloadCacheKey(id))
		if err != nil {
			misses = append(misses, id)
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			misses = append(misses, id)
			continue
		}
		counts[id] = n
	}

	if len(misses) > 0 {
		fresh, err := w.counter.CountOpenByAgents(ctx, misses)
		if err != nil {
			return nil, err
		}
		for id, n := range fresh {
			counts[id] = n
			if w.cache != nil {
				if err := w.cache.Set(ctx, workloadCacheKey(id), strconv.Itoa(n), w.ttl); err != nil {
					w.logger.Debug("workload cache write failed", map[string]interface{}{
						"agentId": id,
						"error":   err.Error(),
					})
				}
			}
		}
	}

	return counts, nil
}

// AgentCapacity scores an agent's remaining capacity in [0,1].
func (w *WorkloadAnalyzer) AgentCapacity(orgID string, agent *models.Agent, openCounts map[string]int) models.WorkloadFactors {
	threshold := w.cfg.ThresholdFor(orgID)
	open := openCounts[agent.ID]

	capacity := clamp01(1 - float64(open)/float64(threshold))

	return models.WorkloadFactors{
		OpenTickets: open,
		Threshold:   threshold,
		Capacity:    capacity,
	}
}

// TeamCapacity scores a team's remaining capacity in [0,1]: the average open
// load of active members against the threshold, penalized when the team is
// smaller than the configured minimum.
func (w *WorkloadAnalyzer) TeamCapacity(orgID string, team *models.Team, openCounts map[string]int) models.WorkloadFactors {
	threshold := w.cfg.ThresholdFor(orgID)
	active := team.ActiveMembers()

	total := 0
	for _, m := range active {
		total += openCounts[m.AgentID]
	}

	avgOpen := 0.0
	if len(active) > 0 {
		avgOpen = float64(total) / float64(len(active))
	}

	loadFactor := clamp01(1 - avgOpen/float64(threshold))
	sizeFactor := math.Min(1, float64(len(active))/float64(w.cfg.MinTeamSize))

	return models.WorkloadFactors{
		OpenTickets:   total,
		AvgOpen:       avgOpen,
		ActiveMembers: len(active),
		Threshold:     threshold,
		Capacity:      loadFactor * sizeFactor,
	}
}
