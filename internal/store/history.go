// internal/store/history.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/models"
)

// RoutingHistoryStore reads the append-only routing decision log.
// Writes go through the decision recorder so assignment and audit stay in
// one transaction.
type RoutingHistoryStore struct {
	db *database.PostgresClient
}

func NewRoutingHistoryStore(db *database.PostgresClient) *RoutingHistoryStore {
	return &RoutingHistoryStore{db: db}
}

// ListByTicket returns all decisions recorded for a ticket, newest first.
func (s *RoutingHistoryStore) ListByTicket(ctx context.Context, ticketID string) ([]models.RoutingDecision, error) {
	query := `
		SELECT id, ticket_id, assigned_to, assignee_type, outcome,
		       confidence_score, routing_factors, created_at
		FROM ticket_routing_history
		WHERE ticket_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_routing_history", err)
	}
	defer rows.Close()

	var decisions []models.RoutingDecision
	for rows.Next() {
		var (
			d            models.RoutingDecision
			assignedTo   sql.NullString
			assigneeType sql.NullString
			factorsJSON  []byte
		)
		if err := rows.Scan(
			&d.ID, &d.TicketID, &assignedTo, &assigneeType, &d.Outcome,
			&d.Confidence, &factorsJSON, &d.CreatedAt,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_routing_history", err)
		}
		if assignedTo.Valid {
			d.AssigneeID = assignedTo.String
		}
		if assigneeType.Valid {
			d.AssigneeType = models.AssigneeType(assigneeType.String)
		}
		if len(factorsJSON) > 0 {
			var factors models.RoutingFactors
			if err := json.Unmarshal(factorsJSON, &factors); err == nil {
				d.Factors = &factors
			}
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_routing_history", err)
	}

	return decisions, nil
}

// LatestByTicket returns the most recent decision for a ticket, or nil.
func (s *RoutingHistoryStore) LatestByTicket(ctx context.Context, ticketID string) (*models.RoutingDecision, error) {
	decisions, err := s.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return nil, nil
	}
	return &decisions[0], nil
}
