// internal/models/ticket.go
package models

import "time"

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusClosed   TicketStatus = "closed"
)

// AssigneeType distinguishes team and agent assignments.
type AssigneeType string

const (
	AssigneeTypeTeam  AssigneeType = "team"
	AssigneeTypeAgent AssigneeType = "agent"
)

// Ticket is a support ticket as routed by the engine.
type Ticket struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	Description    string       `json:"description"`
	Tags           []string     `json:"tags"`
	Priority       string       `json:"priority"`
	OrganizationID string       `json:"organizationId"`
	Status         TicketStatus `json:"status"`
	AssigneeID     *string      `json:"assigneeId,omitempty"`
	AssigneeType   AssigneeType `json:"assigneeType,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// IsRoutable reports whether the ticket is open and unassigned.
func (t *Ticket) IsRoutable() bool {
	return t.Status == TicketStatusOpen && (t.AssigneeID == nil || *t.AssigneeID == "")
}
