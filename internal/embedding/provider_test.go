// internal/embedding/provider_test.go
package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbeddingsConfig(baseURL string) config.EmbeddingsConfig {
	return config.EmbeddingsConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Model:     "text-embedding-3-small",
		Dimension: 3,
		Timeout:   2000,
	}
}

func embeddingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProvider_Embed(t *testing.T) {
	var gotAuth, gotPath string
	var gotRequest map[string]interface{}

	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float64{0.1, 0.2, 0.3}},
			},
		})
	})

	provider, err := NewHTTPProvider(testEmbeddingsConfig(srv.URL))
	require.NoError(t, err)

	vector, err := provider.Embed(context.Background(), "vpn tunnel drops")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/embeddings", gotPath)
	assert.Equal(t, "text-embedding-3-small", gotRequest["model"])
	assert.Equal(t, []interface{}{"vpn tunnel drops"}, gotRequest["input"])
}

func TestHTTPProvider_Embed_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float64{0.1, 0.2}},
			},
		})
	})

	provider, err := NewHTTPProvider(testEmbeddingsConfig(srv.URL))
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "text")
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeEmbeddingUnavailable, stdErr.Code)
}

func TestHTTPProvider_Embed_ServerError(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	provider, err := NewHTTPProvider(testEmbeddingsConfig(srv.URL))
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "text")
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeEmbeddingUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHTTPProvider_Embed_APIError(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "model overloaded"},
		})
	})

	provider, err := NewHTTPProvider(testEmbeddingsConfig(srv.URL))
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDDING_UNAVAILABLE")
}

func TestHTTPProvider_Embed_EmptyData(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{},
		})
	})

	provider, err := NewHTTPProvider(testEmbeddingsConfig(srv.URL))
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestHTTPProvider_Embed_ContextCancelled(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	provider, err := NewHTTPProvider(testEmbeddingsConfig(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = provider.Embed(ctx, "text")
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeEmbeddingUnavailable, stdErr.Code)
}

func TestNewHTTPProvider_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmbeddingsConfig
	}{
		{name: "missing base url", cfg: config.EmbeddingsConfig{Dimension: 3}},
		{name: "zero dimension", cfg: config.EmbeddingsConfig{BaseURL: "http://localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPProvider(tt.cfg)
			require.Error(t, err)

			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeConfigurationError, stdErr.Code)
		})
	}
}
