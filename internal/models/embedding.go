// internal/models/embedding.go
package models

import "time"

// EntityType identifies what an embedding vector describes.
type EntityType string

const (
	EntityTypeTicket  EntityType = "ticket"
	EntityTypeTeam    EntityType = "team"
	EntityTypeUser    EntityType = "user"
	EntityTypeComment EntityType = "comment"
)

// EmbeddingMetadata carries the filterable attributes stored next to a vector.
type EmbeddingMetadata struct {
	Tags           []string     `json:"tags,omitempty"`
	OrganizationID string       `json:"organizationId,omitempty"`
	Status         TicketStatus `json:"status,omitempty"`
	OwnerID        string       `json:"ownerId,omitempty"`
	OwnerType      AssigneeType `json:"ownerType,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// EmbeddingRecord is an immutable vector document. Content changes produce a
// new record superseding the old one; records are never mutated in place.
type EmbeddingRecord struct {
	ID         string            `json:"id"`
	EntityType EntityType        `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Vector     []float32         `json:"vector"`
	Metadata   EmbeddingMetadata `json:"metadata"`
}
