// internal/vector/index.go
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/models"
)

// SearchFilter restricts a kNN query to matching embedding documents.
type SearchFilter struct {
	EntityType models.EntityType
	Status     models.TicketStatus
	Tags       []string
}

// Index is a vector similarity index over embedding records.
type Index interface {
	Search(ctx context.Context, vector []float32, topK int, filter SearchFilter) ([]models.SimilarTicket, error)
	Upsert(ctx context.Context, record *models.EmbeddingRecord) error
	Delete(ctx context.Context, id string) error
}

// ElasticsearchIndex implements Index with an Elasticsearch kNN search.
type ElasticsearchIndex struct {
	es        *database.ElasticsearchClient
	indexName string
	dimension int
}

// NewElasticsearchIndex creates an index handle. The dimension is fixed per
// deployment and checked on every upsert.
func NewElasticsearchIndex(es *database.ElasticsearchClient, indexName string, dimension int) (*ElasticsearchIndex, error) {
	if dimension <= 0 {
		return nil, errors.NewConfigurationError("vector index dimension must be positive")
	}
	return &ElasticsearchIndex{
		es:        es,
		indexName: indexName,
		dimension: dimension,
	}, nil
}

type esHit struct {
	ID     string  `json:"_id"`
	Score  float64 `json:"_score"`
	Source struct {
		EntityID string `json:"entity_id"`
		Metadata struct {
			OwnerID   string `json:"owner_id"`
			OwnerType string `json:"owner_type"`
		} `json:"metadata"`
	} `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

// Search runs a filtered kNN query and returns ranked similar tickets.
func (i *ElasticsearchIndex) Search(ctx context.Context, vector []float32, topK int, filter SearchFilter) ([]models.SimilarTicket, error) {
	filters := []map[string]interface{}{}
	if filter.EntityType != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"entity_type": string(filter.EntityType)},
		})
	}
	if filter.Status != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"metadata.status": string(filter.Status)},
		})
	}
	if len(filter.Tags) > 0 {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{"metadata.tags": filter.Tags},
		})
	}

	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": topK * 10,
			"filter":         filters,
		},
		"size":    topK,
		"_source": []string{"entity_id", "metadata.owner_id", "metadata.owner_type"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.NewSearchQueryFailedError("knn_search", err)
	}

	res, err := i.es.Client.Search(
		i.es.Client.Search.WithContext(ctx),
		i.es.Client.Search.WithIndex(i.indexName),
		i.es.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.NewVectorIndexUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == 404 {
			return nil, errors.NewIndexNotFoundError(i.indexName)
		}
		return nil, errors.NewVectorIndexUnavailableError(
			fmt.Errorf("search returned %s: %s", res.Status(), string(body)))
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewVectorIndexUnavailableError(err)
	}

	similar := make([]models.SimilarTicket, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		similar = append(similar, models.SimilarTicket{
			TicketID:  hit.Source.EntityID,
			Score:     hit.Score,
			OwnerID:   hit.Source.Metadata.OwnerID,
			OwnerType: models.AssigneeType(hit.Source.Metadata.OwnerType),
		})
	}

	return similar, nil
}

// Upsert writes an embedding record document. The record id is the document
// id, so a superseding record with a new id never overwrites its predecessor.
func (i *ElasticsearchIndex) Upsert(ctx context.Context, record *models.EmbeddingRecord) error {
	if len(record.Vector) != i.dimension {
		return errors.NewConfigurationError(
			fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(record.Vector), i.dimension))
	}

	doc := map[string]interface{}{
		"entity_type": string(record.EntityType),
		"entity_id":   record.EntityID,
		"vector":      record.Vector,
		"metadata": map[string]interface{}{
			"tags":            record.Metadata.Tags,
			"organization_id": record.Metadata.OrganizationID,
			"status":          string(record.Metadata.Status),
			"owner_id":        record.Metadata.OwnerID,
			"owner_type":      string(record.Metadata.OwnerType),
			"created_at":      record.Metadata.CreatedAt,
			"updated_at":      record.Metadata.UpdatedAt,
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return errors.NewSearchQueryFailedError("upsert_embedding", err)
	}

	res, err := i.es.Client.Index(
		i.indexName,
		&buf,
		i.es.Client.Index.WithContext(ctx),
		i.es.Client.Index.WithDocumentID(record.ID),
	)
	if err != nil {
		return errors.NewVectorIndexUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return errors.NewSearchQueryFailedError("upsert_embedding",
			fmt.Errorf("index returned %s: %s", res.Status(), string(body)))
	}

	return nil
}

// Delete removes a superseded embedding record.
func (i *ElasticsearchIndex) Delete(ctx context.Context, id string) error {
	res, err := i.es.Client.Delete(
		i.indexName,
		id,
		i.es.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return errors.NewVectorIndexUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		body, _ := io.ReadAll(res.Body)
		return errors.NewSearchQueryFailedError("delete_embedding",
			fmt.Errorf("delete returned %s: %s", res.Status(), string(body)))
	}

	return nil
}
