// internal/models/agent.go
package models

import "strings"

// ExpertiseLevel grades an agent's proficiency in a knowledge domain.
type ExpertiseLevel string

const (
	ExpertiseLevelBeginner     ExpertiseLevel = "beginner"
	ExpertiseLevelIntermediate ExpertiseLevel = "intermediate"
	ExpertiseLevelExpert       ExpertiseLevel = "expert"
)

// Weight returns the numeric weight for the level. Unknown levels count as
// beginner.
func (l ExpertiseLevel) Weight() float64 {
	switch l {
	case ExpertiseLevelExpert:
		return 1.0
	case ExpertiseLevelIntermediate:
		return 0.66
	default:
		return 0.33
	}
}

// KnowledgeDomain is a named area of expertise (e.g. "networking").
type KnowledgeDomain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Expertise links an agent to a knowledge domain with a proficiency grade.
type Expertise struct {
	DomainID        string         `json:"domainId"`
	DomainName      string         `json:"domainName"`
	Level           ExpertiseLevel `json:"level"`
	YearsExperience float64        `json:"yearsExperience"`
}

// ScheduleWindow is a weekly availability window for an agent.
type ScheduleWindow struct {
	DayOfWeek int    `json:"dayOfWeek"` // 0 = Sunday
	StartTime string `json:"startTime"` // "09:00"
	EndTime   string `json:"endTime"`   // "17:00"
}

// Agent is a support agent eligible for ticket assignment.
type Agent struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organizationId"`
	Expertise      []Expertise      `json:"expertise"`
	IsActive       bool             `json:"isActive"`
	Schedule       []ScheduleWindow `json:"schedule,omitempty"`
	OpenTickets    int              `json:"openTickets"`
}

// HasDomain reports whether the agent holds expertise in the named domain.
// Matching is case-insensitive on the domain name.
func (a *Agent) HasDomain(name string) (Expertise, bool) {
	for _, e := range a.Expertise {
		if strings.EqualFold(e.DomainName, name) {
			return e, true
		}
	}
	return Expertise{}, false
}
