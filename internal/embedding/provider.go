// internal/embedding/provider.go
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"

	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/common/errors"
	"ticket-routing-workers/internal/common/http"
)

// Provider produces embedding vectors for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// HTTPProvider calls an OpenAI-compatible embeddings endpoint.
type HTTPProvider struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	dimension int
}

// NewHTTPProvider creates a provider from configuration. The configured
// dimension is enforced against every response.
func NewHTTPProvider(cfg config.EmbeddingsConfig) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewConfigurationError("embeddings.base_url is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.NewConfigurationError("embeddings.dimension must be positive")
	}

	return &HTTPProvider{
		client:    http.NewClient(config.GetDuration(cfg.Timeout)),
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

func (p *HTTPProvider) Dimension() int {
	return p.dimension
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the vector for a single text.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embeddingRequest{
		Model: p.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, errors.NewEmbeddingUnavailableError(err)
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewEmbeddingUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, errors.NewEmbeddingUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewEmbeddingUnavailableError(err)
	}

	if resp.StatusCode != nethttp.StatusOK {
		return nil, errors.NewEmbeddingUnavailableError(
			fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewEmbeddingUnavailableError(err)
	}
	if parsed.Error != nil {
		return nil, errors.NewEmbeddingUnavailableError(fmt.Errorf("embedding API error: %s", parsed.Error.Message))
	}
	if len(parsed.Data) == 0 {
		return nil, errors.NewEmbeddingUnavailableError(fmt.Errorf("embedding API returned no data"))
	}

	vector := parsed.Data[0].Embedding
	if len(vector) != p.dimension {
		return nil, errors.NewEmbeddingUnavailableError(
			fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vector), p.dimension))
	}

	return vector, nil
}
