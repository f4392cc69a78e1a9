// internal/embedding/builder.go
package embedding

import (
	"context"
	"strings"
	"time"

	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/models"
)

// DefaultEmbedTimeout bounds one provider call per ticket.
const DefaultEmbedTimeout = 10 * time.Second

// ContextBuilder turns a ticket into its embedding vector.
type ContextBuilder struct {
	provider Provider
	timeout  time.Duration
	logger   logger.Logger
}

func NewContextBuilder(provider Provider, timeout time.Duration, log logger.Logger) *ContextBuilder {
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	return &ContextBuilder{
		provider: provider,
		timeout:  timeout,
		logger:   log,
	}
}

// BuildContext normalizes the ticket text and returns its embedding.
// Provider failures and timeouts surface as EMBEDDING_UNAVAILABLE; the ticket
// stays unrouted for this pass.
func (b *ContextBuilder) BuildContext(ctx context.Context, ticket *models.Ticket) ([]float32, error) {
	text := NormalizeText(ticket.Subject + "\n\n" + ticket.Description)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	vector, err := b.provider.Embed(ctx, text)
	if err != nil {
		b.logger.Warn("embedding provider call failed", map[string]interface{}{
			"ticketId": ticket.ID,
			"error":    err.Error(),
		})
		return nil, err
	}

	return vector, nil
}

// NormalizeText trims and collapses runs of whitespace to single spaces,
// preserving the blank line between subject and description.
func NormalizeText(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		collapsed := strings.Join(strings.Fields(p), " ")
		if collapsed != "" {
			out = append(out, collapsed)
		}
	}
	return strings.Join(out, "\n\n")
}
