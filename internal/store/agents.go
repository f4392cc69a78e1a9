// internal/store/agents.go
package store

import (
	"context"
	"strings"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/models"

	"github.com/lib/pq"
)

// AgentStore reads agents and their expertise from PostgreSQL.
type AgentStore struct {
	db *database.PostgresClient
}

func NewAgentStore(db *database.PostgresClient) *AgentStore {
	return &AgentStore{db: db}
}

// GetByIDs returns active agents with their expertise loaded. Missing or
// inactive ids are omitted from the result.
func (s *AgentStore) GetByIDs(ctx context.Context, agentIDs []string) ([]models.Agent, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, organization_id, is_active
		FROM users
		WHERE id = ANY($1) AND is_active = TRUE
		ORDER BY id`

	rows, err := s.db.Query(ctx, query, pq.Array(agentIDs))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_agents", err)
	}
	defer rows.Close()

	var agents []models.Agent
	index := map[string]int{}
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.IsActive); err != nil {
			return nil, errors.NewQueryExecutionFailedError("get_agents", err)
		}
		index[a.ID] = len(agents)
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_agents", err)
	}

	if err := s.loadExpertise(ctx, agents, index); err != nil {
		return nil, err
	}

	return agents, nil
}

// ListActiveByDomains returns active agents holding expertise in any of the
// named knowledge domains. Domain name matching is case-insensitive.
func (s *AgentStore) ListActiveByDomains(ctx context.Context, domainNames []string) ([]models.Agent, error) {
	if len(domainNames) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT u.id, u.organization_id, u.is_active
		FROM users u
		JOIN user_knowledge_domain ukd ON ukd.user_id = u.id
		JOIN knowledge_domain kd ON kd.id = ukd.domain_id
		WHERE u.is_active = TRUE AND LOWER(kd.name) = ANY($1)
		ORDER BY u.id`

	lowered := make([]string, len(domainNames))
	for i, n := range domainNames {
		lowered[i] = strings.ToLower(n)
	}

	rows, err := s.db.Query(ctx, query, pq.Array(lowered))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_agents_by_domains", err)
	}
	defer rows.Close()

	var agents []models.Agent
	index := map[string]int{}
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.IsActive); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_agents_by_domains", err)
		}
		index[a.ID] = len(agents)
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_agents_by_domains", err)
	}

	if err := s.loadExpertise(ctx, agents, index); err != nil {
		return nil, err
	}

	return agents, nil
}

func (s *AgentStore) loadExpertise(ctx context.Context, agents []models.Agent, index map[string]int) error {
	if len(agents) == 0 {
		return nil
	}

	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.ID)
	}

	query := `
		SELECT ukd.user_id, ukd.domain_id, kd.name, ukd.level, ukd.years_experience
		FROM user_knowledge_domain ukd
		JOIN knowledge_domain kd ON kd.id = ukd.domain_id
		WHERE ukd.user_id = ANY($1)
		ORDER BY ukd.user_id, kd.name`

	rows, err := s.db.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return errors.NewQueryExecutionFailedError("load_expertise", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			e      models.Expertise
		)
		if err := rows.Scan(&userID, &e.DomainID, &e.DomainName, &e.Level, &e.YearsExperience); err != nil {
			return errors.NewQueryExecutionFailedError("load_expertise", err)
		}
		if i, ok := index[userID]; ok {
			agents[i].Expertise = append(agents[i].Expertise, e)
		}
	}
	return rows.Err()
}
