// internal/routing/router.go
package routing

import (
	"context"
	"sync"
	"time"

	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/common/metrics"
	"ticket-routing-workers/internal/models"

	"github.com/google/uuid"
)

// ContextBuilder turns a ticket into its embedding vector.
type ContextBuilder interface {
	BuildContext(ctx context.Context, ticket *models.Ticket) ([]float32, error)
}

// SimilarRetriever fetches resolved tickets similar to a new one. Index
// degradation returns an empty slice, never an error.
type SimilarRetriever interface {
	Retrieve(ctx context.Context, ticket *models.Ticket, vector []float32) []models.SimilarTicket
}

// EmbeddingWriter stores freshly computed ticket embeddings so resolved
// tickets become retrievable by later similarity queries.
type EmbeddingWriter interface {
	Upsert(ctx context.Context, record *models.EmbeddingRecord) error
}

// Recorder persists routing decisions.
type Recorder interface {
	RecordAssignment(ctx context.Context, decision *models.RoutingDecision) error
	RecordNoCandidates(ctx context.Context, decision *models.RoutingDecision) error
}

// TicketReader re-reads ticket state before the write step.
type TicketReader interface {
	GetByID(ctx context.Context, ticketID string) (*models.Ticket, error)
}

// AssignmentNotifier enqueues an assignment notification. Delivery failures
// never affect the routing decision.
type AssignmentNotifier interface {
	EnqueueAssignment(ctx context.Context, ticket *models.Ticket, decision *models.RoutingDecision) error
}

// RouteResult is the outcome of one routing pass for a ticket.
type RouteResult struct {
	Outcome        models.RoutingOutcome
	Recommendation *models.Recommendation
	Decision       *models.RoutingDecision
}

// TicketRouter runs the full routing pipeline for a single ticket:
// context building, similarity retrieval, candidate generation, scoring,
// decision and recording.
type TicketRouter struct {
	tickets    TicketReader
	builder    ContextBuilder
	retriever  SimilarRetriever
	candidates *CandidateGenerator
	scorer     *ExpertiseScorer
	workload   *WorkloadAnalyzer
	engine     *DecisionEngine
	recorder   Recorder
	notifier   AssignmentNotifier
	embeddings EmbeddingWriter
	logger     logger.Logger
}

func NewTicketRouter(
	tickets TicketReader,
	builder ContextBuilder,
	retriever SimilarRetriever,
	candidates *CandidateGenerator,
	scorer *ExpertiseScorer,
	workload *WorkloadAnalyzer,
	engine *DecisionEngine,
	recorder Recorder,
	notifier AssignmentNotifier,
	embeddings EmbeddingWriter,
	log logger.Logger,
) *TicketRouter {
	return &TicketRouter{
		tickets:    tickets,
		builder:    builder,
		retriever:  retriever,
		candidates: candidates,
		scorer:     scorer,
		workload:   workload,
		engine:     engine,
		recorder:   recorder,
		notifier:   notifier,
		embeddings: embeddings,
		logger:     log,
	}
}

// RouteByID loads a ticket and routes it.
func (r *TicketRouter) RouteByID(ctx context.Context, ticketID string) (*RouteResult, error) {
	ticket, err := r.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return r.Route(ctx, ticket)
}

// Route runs one routing pass. The pipeline is side-effect-free until the
// conditional assignment write.
func (r *TicketRouter) Route(ctx context.Context, ticket *models.Ticket) (*RouteResult, error) {
	start := time.Now()

	if !ticket.IsRoutable() {
		r.logger.Debug("ticket not routable, skipping", map[string]interface{}{
			"ticketId": ticket.ID,
			"status":   string(ticket.Status),
		})
		return &RouteResult{Outcome: models.OutcomeSkipped}, nil
	}

	vector, err := r.builder.BuildContext(ctx, ticket)
	if err != nil {
		r.observe(start, "failed")
		return nil, err
	}

	r.storeEmbedding(ctx, ticket, vector)

	similar := r.retriever.Retrieve(ctx, ticket, vector)

	candidates, err := r.candidates.Generate(ctx, ticket)
	if err != nil {
		r.observe(start, "failed")
		return nil, err
	}

	if len(candidates) == 0 {
		decision := models.NewNoCandidateDecision(uuid.NewString(), ticket.ID)
		if err := r.recorder.RecordNoCandidates(ctx, decision); err != nil {
			r.observe(start, "failed")
			return nil, err
		}
		r.logger.Info("no eligible candidates for ticket", map[string]interface{}{
			"ticketId": ticket.ID,
			"tags":     ticket.Tags,
		})
		r.observe(start, "no_candidates")
		return &RouteResult{
			Outcome:  models.OutcomeNoEligibleCandidates,
			Decision: decision,
		}, nil
	}

	scored, err := r.scoreCandidates(ctx, ticket, candidates, similar)
	if err != nil {
		r.observe(start, "failed")
		return nil, err
	}

	recommendation := r.engine.Decide(ticket, scored, similar)

	decision, err := models.NewRoutingDecision(
		uuid.NewString(),
		ticket.ID,
		recommendation.AssigneeID,
		recommendation.AssigneeType,
		recommendation.Confidence,
		recommendation.Factors,
	)
	if err != nil {
		r.observe(start, "failed")
		return nil, err
	}

	// Re-check state before the write: the ticket may have been closed or
	// assigned while scoring ran.
	current, err := r.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		r.observe(start, "failed")
		return nil, err
	}
	if !current.IsRoutable() {
		r.logger.Info("ticket state changed during routing, skipping write", map[string]interface{}{
			"ticketId": ticket.ID,
			"status":   string(current.Status),
		})
		r.observe(start, "skipped")
		return &RouteResult{Outcome: models.OutcomeSkipped, Recommendation: recommendation}, nil
	}

	if err := r.recorder.RecordAssignment(ctx, decision); err != nil {
		r.observe(start, "failed")
		return nil, err
	}

	r.logger.Info("ticket routed", map[string]interface{}{
		"ticketId":     ticket.ID,
		"assigneeId":   decision.AssigneeID,
		"assigneeType": string(decision.AssigneeType),
		"confidence":   decision.Confidence,
	})

	if r.notifier != nil {
		if err := r.notifier.EnqueueAssignment(ctx, ticket, decision); err != nil {
			r.logger.Warn("failed to enqueue assignment notification", map[string]interface{}{
				"ticketId": ticket.ID,
				"error":    err.Error(),
			})
		}
	}

	r.observe(start, "assigned")
	return &RouteResult{
		Outcome:        models.OutcomeAssigned,
		Recommendation: recommendation,
		Decision:       decision,
	}, nil
}

// storeEmbedding persists the ticket embedding as a fresh record carrying
// the ticket as entity_id, so a re-route supersedes earlier vectors without
// mutating them. Write failures never block routing.
func (r *TicketRouter) storeEmbedding(ctx context.Context, ticket *models.Ticket, vector []float32) {
	if r.embeddings == nil {
		return
	}

	now := time.Now().UTC()
	record := &models.EmbeddingRecord{
		ID:         uuid.NewString(),
		EntityType: models.EntityTypeTicket,
		EntityID:   ticket.ID,
		Vector:     vector,
		Metadata: models.EmbeddingMetadata{
			Tags:           ticket.Tags,
			OrganizationID: ticket.OrganizationID,
			Status:         ticket.Status,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
	if err := r.embeddings.Upsert(ctx, record); err != nil {
		r.logger.Warn("failed to store ticket embedding", map[string]interface{}{
			"ticketId": ticket.ID,
			"error":    err.Error(),
		})
	}
}

// scoreCandidates computes relevance and capacity for every candidate.
// Relevance scoring is pure and runs concurrently with the workload fetch.
func (r *TicketRouter) scoreCandidates(ctx context.Context, ticket *models.Ticket, candidates []models.Candidate, similar []models.SimilarTicket) ([]models.ScoredCandidate, error) {
	agentsByID := map[string]*models.Agent{}
	agentIDSet := map[string]bool{}
	var agentIDs []string

	addAgentID := func(id string) {
		if !agentIDSet[id] {
			agentIDSet[id] = true
			agentIDs = append(agentIDs, id)
		}
	}

	for i := range candidates {
		c := &candidates[i]
		switch c.Type {
		case models.AssigneeTypeAgent:
			agentsByID[c.ID] = c.Agent
			addAgentID(c.ID)
		case models.AssigneeTypeTeam:
			for _, m := range c.Team.ActiveMembers() {
				addAgentID(m.AgentID)
			}
		}
	}

	var (
		wg        sync.WaitGroup
		relevance = make([]models.RelevanceFactors, len(candidates))

		openCounts map[string]int
		countErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range candidates {
			relevance[i] = r.scorer.Score(ticket, &candidates[i], similar, agentsByID)
		}
	}()
	go func() {
		defer wg.Done()
		openCounts, countErr = r.workload.OpenCounts(ctx, agentIDs)
	}()
	wg.Wait()

	if countErr != nil {
		return nil, countErr
	}

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]

		var workload models.WorkloadFactors
		switch c.Type {
		case models.AssigneeTypeAgent:
			workload = r.workload.AgentCapacity(ticket.OrganizationID, c.Agent, openCounts)
		case models.AssigneeTypeTeam:
			workload = r.workload.TeamCapacity(ticket.OrganizationID, c.Team, openCounts)
		}

		scored = append(scored, models.ScoredCandidate{
			Candidate: c,
			Relevance: relevance[i],
			Workload:  workload,
			Final:     r.engine.FinalScore(relevance[i].Relevance, workload.Capacity),
		})
	}

	return scored, nil
}

func (r *TicketRouter) observe(start time.Time, outcome string) {
	metrics.TicketsRouted.WithLabelValues(outcome).Inc()
	metrics.RoutingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
