// internal/workers/routing/route-ticket/models.go
package routeticket

import "ticket-routing-workers/internal/models"

// Input is the job payload. Either a ticket id to load, or an inline ticket.
type Input struct {
	TicketID string         `json:"ticketId,omitempty"`
	Ticket   *models.Ticket `json:"ticket,omitempty"`
}

// Output is the set of variables completed back to the process.
type Output struct {
	Outcome        string                 `json:"outcome"`
	AssigneeID     string                 `json:"assigneeId,omitempty"`
	AssigneeType   string                 `json:"assigneeType,omitempty"`
	Confidence     float64                `json:"confidence,omitempty"`
	Factors        *models.RoutingFactors `json:"factors,omitempty"`
	SimilarTickets []string               `json:"similarTickets,omitempty"`
	Alternatives   []models.Alternative   `json:"alternatives,omitempty"`
}
