package embeddings

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/cinepick/cinepick/internal/recerrors"
)

// OpenAIClient implements Client using OpenAI's embedding API.
// One client serves all embedding spaces; the model is chosen per call.
type OpenAIClient struct {
	client  *openai.Client
	timeout time.Duration
}

var _ Client = (*OpenAIClient)(nil)

var errEmptyText = errors.New("text cannot be empty")

// NewOpenAIClient creates an OpenAI embedding client. timeout bounds each
// API call; use 0 to rely on the caller's context alone.
// Panics if apiKey is empty.
func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	if apiKey == "" {
		panic("embeddings: OpenAI API key cannot be empty")
	}

	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		timeout: timeout,
	}
}

// CreateEmbedding generates an embedding vector for the given text and model.
// All failures (transport, quota, timeout, malformed response) are reported
// as *recerrors.EmbeddingProviderError.
func (c *OpenAIClient) CreateEmbedding(ctx context.Context, text, model string) ([]float32, error) {
	if text == "" {
		return nil, recerrors.NewEmbeddingProviderError(model, errEmptyText)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, recerrors.NewEmbeddingProviderError(model, err)
	}

	if len(resp.Data) == 0 {
		return nil, recerrors.NewEmbeddingProviderError(model, errors.New("no embedding returned from API"))
	}

	return resp.Data[0].Embedding, nil
}
