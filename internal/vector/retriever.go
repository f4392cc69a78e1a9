// internal/vector/retriever.go
package vector

import (
	"context"

	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/common/metrics"
	"ticket-routing-workers/internal/models"
)

// DefaultTopK is the number of similar resolved tickets fetched per route.
const DefaultTopK = 5

// SimilarTicketRetriever fetches resolved tickets similar to a new one.
type SimilarTicketRetriever struct {
	index  Index
	topK   int
	logger logger.Logger
}

func NewSimilarTicketRetriever(index Index, topK int, log logger.Logger) *SimilarTicketRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &SimilarTicketRetriever{
		index:  index,
		topK:   topK,
		logger: log,
	}
}

// Retrieve returns ranked resolved tickets sharing at least one tag with the
// given ticket. An index failure degrades to an empty result so routing can
// continue with the similarity signal zeroed.
func (r *SimilarTicketRetriever) Retrieve(ctx context.Context, ticket *models.Ticket, vector []float32) []models.SimilarTicket {
	similar, err := r.index.Search(ctx, vector, r.topK, SearchFilter{
		EntityType: models.EntityTypeTicket,
		Status:     models.TicketStatusResolved,
		Tags:       ticket.Tags,
	})
	if err != nil {
		r.logger.Warn("vector index unavailable, similarity signal zeroed", map[string]interface{}{
			"ticketId": ticket.ID,
			"error":    err.Error(),
		})
		metrics.VectorIndexDegraded.Inc()
		return nil
	}

	return similar
}
