// internal/models/team.go
package models

// TeamMember links an agent to a team.
type TeamMember struct {
	AgentID  string `json:"agentId"`
	Role     string `json:"role,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Team is a support team eligible for ticket assignment.
type Team struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Tags     []string     `json:"tags"`
	Members  []TeamMember `json:"members"`
	IsActive bool         `json:"isActive"`
}

// ActiveMembers returns the subset of members flagged active.
func (t *Team) ActiveMembers() []TeamMember {
	var out []TeamMember
	for _, m := range t.Members {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out
}
