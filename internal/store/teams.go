// internal/store/teams.go
package store

import (
	"context"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/models"

	"github.com/lib/pq"
)

// TeamStore reads teams and their memberships from PostgreSQL.
type TeamStore struct {
	db *database.PostgresClient
}

func NewTeamStore(db *database.PostgresClient) *TeamStore {
	return &TeamStore{db: db}
}

// ListActive returns all active teams with their members loaded.
func (s *TeamStore) ListActive(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT id, name, tags, is_active
		FROM teams
		WHERE is_active = TRUE
		ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_teams", err)
	}
	defer rows.Close()

	var teams []models.Team
	index := map[string]int{}
	for rows.Next() {
		var (
			t    models.Team
			tags pq.StringArray
		)
		if err := rows.Scan(&t.ID, &t.Name, &tags, &t.IsActive); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_active_teams", err)
		}
		t.Tags = tags
		index[t.ID] = len(teams)
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_active_teams", err)
	}

	if len(teams) == 0 {
		return teams, nil
	}

	teamIDs := make([]string, 0, len(teams))
	for _, t := range teams {
		teamIDs = append(teamIDs, t.ID)
	}

	memberQuery := `
		SELECT team_id, agent_id, role, is_active
		FROM team_members
		WHERE team_id = ANY($1)
		ORDER BY team_id, agent_id`

	memberRows, err := s.db.Query(ctx, memberQuery, pq.Array(teamIDs))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_team_members", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var (
			teamID string
			m      models.TeamMember
		)
		if err := memberRows.Scan(&teamID, &m.AgentID, &m.Role, &m.IsActive); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_team_members", err)
		}
		if i, ok := index[teamID]; ok {
			teams[i].Members = append(teams[i].Members, m)
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_team_members", err)
	}

	return teams, nil
}
