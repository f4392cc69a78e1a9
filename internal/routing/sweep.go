// internal/routing/sweep.go
package routing

import (
	"context"
	"sync"

	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/common/metrics"
	"ticket-routing-workers/internal/models"
)

const (
	// DefaultSweepConcurrency bounds the routing worker pool.
	DefaultSweepConcurrency = 5
	// MaxSweepConcurrency is the hard cap on the pool size.
	MaxSweepConcurrency = 10
)

// UnassignedLister supplies the tickets a sweep scans.
type UnassignedLister interface {
	ListUnassignedOpen(ctx context.Context, limit int) ([]models.Ticket, error)
}

// SweepSummary reports the outcome of one sweep.
type SweepSummary struct {
	Scanned    int            `json:"scanned"`
	Routed     int            `json:"routed"`
	Skipped    int            `json:"skipped"`
	Unassigned int            `json:"unassigned"`
	Failed     int            `json:"failed"`
	FailedBy   map[string]int `json:"failedBy,omitempty"`
}

// Sweeper scans unassigned open tickets and routes them through a bounded
// worker pool. Per-ticket failures are isolated; cancellation is scoped to
// the sweep's context.
type Sweeper struct {
	lister      UnassignedLister
	router      *TicketRouter
	concurrency int
	batchSize   int
	logger      logger.Logger
}

func NewSweeper(lister UnassignedLister, router *TicketRouter, concurrency, batchSize int, log logger.Logger) *Sweeper {
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	if concurrency > MaxSweepConcurrency {
		concurrency = MaxSweepConcurrency
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		lister:      lister,
		router:      router,
		concurrency: concurrency,
		batchSize:   batchSize,
		logger:      log,
	}
}

// Run executes one sweep with the configured batch size.
func (s *Sweeper) Run(ctx context.Context) (*SweepSummary, error) {
	return s.RunWithLimit(ctx, s.batchSize)
}

// RunWithLimit executes one sweep scanning at most limit tickets.
func (s *Sweeper) RunWithLimit(ctx context.Context, limit int) (*SweepSummary, error) {
	if limit <= 0 {
		limit = s.batchSize
	}

	metrics.SweepActive.Set(1)
	defer metrics.SweepActive.Set(0)

	tickets, err := s.lister.ListUnassignedOpen(ctx, limit)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{
		Scanned:  len(tickets),
		FailedBy: map[string]int{},
	}
	metrics.SweepTicketsScanned.Observe(float64(len(tickets)))

	if len(tickets) == 0 {
		return summary, nil
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan models.Ticket)
	)

	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticket := range jobs {
				s.routeOne(ctx, ticket, summary, &mu)
			}
		}()
	}

feed:
	for _, t := range tickets {
		select {
		case jobs <- t:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("sweep completed", map[string]interface{}{
		"scanned":    summary.Scanned,
		"routed":     summary.Routed,
		"skipped":    summary.Skipped,
		"unassigned": summary.Unassigned,
		"failed":     summary.Failed,
	})

	return summary, ctx.Err()
}

func (s *Sweeper) routeOne(ctx context.Context, ticket models.Ticket, summary *SweepSummary, mu *sync.Mutex) {
	result, err := s.router.Route(ctx, &ticket)

	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		summary.Failed++
		code := "INTERNAL_ERROR"
		if stdErr, ok := err.(*errors.StandardError); ok {
			code = string(stdErr.Code)
		}
		summary.FailedBy[code]++
		metrics.RoutingFailures.WithLabelValues(code).Inc()
		s.logger.Error("sweep ticket routing failed", map[string]interface{}{
			"ticketId":  ticket.ID,
			"errorCode": code,
			"error":     err.Error(),
		})
		return
	}

	switch result.Outcome {
	case models.OutcomeAssigned:
		summary.Routed++
	case models.OutcomeSkipped:
		summary.Skipped++
	case models.OutcomeNoEligibleCandidates:
		summary.Unassigned++
	}
}
