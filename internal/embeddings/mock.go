package embeddings

import (
	"context"
	"crypto/sha256"
	"errors"
	"math"

	"github.com/cinepick/cinepick/internal/recerrors"
	"github.com/cinepick/cinepick/internal/spaces"
)

// MockClient implements Client for testing and local development.
// It generates deterministic unit vectors from the input text hash, sized to
// the dimensionality of the space whose Model matches the requested model.
type MockClient struct {
	fallbackDims int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock embedding client. Models not present in the
// space registry get 1536-dimensional vectors.
func NewMockClient() *MockClient {
	return &MockClient{fallbackDims: 1536}
}

// CreateEmbedding generates a deterministic embedding from the text hash.
func (c *MockClient) CreateEmbedding(_ context.Context, text, model string) ([]float32, error) {
	if text == "" {
		return nil, recerrors.NewEmbeddingProviderError(model, errors.New("text cannot be empty"))
	}

	dims := c.fallbackDims

	for _, s := range spaces.All() {
		if s.Model == model {
			dims = s.Dimensions

			break
		}
	}

	return deterministicEmbedding(text, dims), nil
}

// deterministicEmbedding creates a normalized vector from the text hash.
func deterministicEmbedding(text string, dims int) []float32 {
	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, dims)

	for i := 0; i < dims; i++ {
		// Hash bytes used cyclically, mapped into [-1, 1].
		embedding[i] = (float32(hash[i%len(hash)]) / 127.5) - 1.0
	}

	return normalize(embedding)
}

// normalize scales a vector to unit length.
func normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}

	magnitude := float32(math.Sqrt(sum))
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = val / magnitude
	}

	return normalized
}
