// internal/store/tickets.go
package store

import (
	"context"
	"database/sql"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/models"

	"github.com/lib/pq"
)

// TicketStore reads and updates tickets in PostgreSQL.
type TicketStore struct {
	db *database.PostgresClient
}

func NewTicketStore(db *database.PostgresClient) *TicketStore {
	return &TicketStore{db: db}
}

// GetByID fetches a single ticket.
func (s *TicketStore) GetByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	query := `
		SELECT id, subject, description, tags, priority, organization_id,
		       status, assignee_id, assignee_type, created_at
		FROM tickets
		WHERE id = $1`

	var (
		t            models.Ticket
		tags         pq.StringArray
		assigneeID   sql.NullString
		assigneeType sql.NullString
	)

	err := s.db.QueryRow(ctx, query, ticketID).Scan(
		&t.ID, &t.Subject, &t.Description, &tags, &t.Priority,
		&t.OrganizationID, &t.Status, &assigneeID, &assigneeType, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewTicketNotFoundError(ticketID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_ticket", err)
	}

	t.Tags = tags
	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.String
	}
	if assigneeType.Valid {
		t.AssigneeType = models.AssigneeType(assigneeType.String)
	}

	return &t, nil
}

// ListUnassignedOpen returns open tickets without an assignee, oldest first.
func (s *TicketStore) ListUnassignedOpen(ctx context.Context, limit int) ([]models.Ticket, error) {
	query := `
		SELECT id, subject, description, tags, priority, organization_id,
		       status, created_at
		FROM tickets
		WHERE status = 'open' AND assignee_id IS NULL
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_unassigned_open", err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var (
			t    models.Ticket
			tags pq.StringArray
		)
		if err := rows.Scan(
			&t.ID, &t.Subject, &t.Description, &tags, &t.Priority,
			&t.OrganizationID, &t.Status, &t.CreatedAt,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_unassigned_open", err)
		}
		t.Tags = tags
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_unassigned_open", err)
	}

	return tickets, nil
}

// CountOpenByAgents returns open-ticket counts per agent id. Agents with no
// open tickets are present with count 0.
func (s *TicketStore) CountOpenByAgents(ctx context.Context, agentIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(agentIDs))
	for _, id := range agentIDs {
		counts[id] = 0
	}
	if len(agentIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT assignee_id, COUNT(*)
		FROM tickets
		WHERE assignee_id = ANY($1)
		  AND assignee_type = 'agent'
		  AND status IN ('open', 'pending')
		GROUP BY assignee_id`

	rows, err := s.db.Query(ctx, query, pq.Array(agentIDs))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("count_open_by_agents", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, errors.NewQueryExecutionFailedError("count_open_by_agents", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("count_open_by_agents", err)
	}

	return counts, nil
}
