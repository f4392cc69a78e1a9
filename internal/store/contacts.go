// internal/store/contacts.go
package store

import (
	"context"
	"database/sql"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/models"
	"ticket-routing-workers/internal/notify"
)

// ContactStore resolves notification contacts for assignees.
type ContactStore struct {
	db *database.PostgresClient
}

func NewContactStore(db *database.PostgresClient) *ContactStore {
	return &ContactStore{db: db}
}

// ContactsForAssignee returns the contacts to notify for an assignment.
// Agent assignments resolve to the agent; team assignments resolve to the
// team's active members.
func (s *ContactStore) ContactsForAssignee(ctx context.Context, assigneeID string, assigneeType models.AssigneeType) ([]notify.Contact, error) {
	var query string
	switch assigneeType {
	case models.AssigneeTypeAgent:
		query = `
			SELECT email, phone
			FROM users
			WHERE id = $1 AND is_active = TRUE`
	case models.AssigneeTypeTeam:
		query = `
			SELECT u.email, u.phone
			FROM users u
			JOIN team_members tm ON tm.agent_id = u.id
			WHERE tm.team_id = $1 AND tm.is_active = TRUE AND u.is_active = TRUE
			ORDER BY u.id`
	default:
		return nil, nil
	}

	rows, err := s.db.Query(ctx, query, assigneeID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("contacts_for_assignee", err)
	}
	defer rows.Close()

	var contacts []notify.Contact
	for rows.Next() {
		var email, phone sql.NullString
		if err := rows.Scan(&email, &phone); err != nil {
			return nil, errors.NewQueryExecutionFailedError("contacts_for_assignee", err)
		}
		contacts = append(contacts, notify.Contact{
			Email: email.String,
			Phone: phone.String,
		})
	}
	return contacts, rows.Err()
}
