package embeddings

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/cinepick/cinepick/internal/recerrors"
)

// RateLimitedClient wraps a Client with a token-bucket limiter so bursts of
// ranking requests cannot exhaust the provider's API quota. Waiting respects
// the caller's context; cancellation surfaces as a provider error.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

var _ Client = (*RateLimitedClient)(nil)

// NewRateLimited wraps inner with a limiter of requestsPerSecond.
func NewRateLimited(inner Client, requestsPerSecond float64) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// CreateEmbedding waits for a limiter token, then delegates to the inner client.
func (c *RateLimitedClient) CreateEmbedding(ctx context.Context, text, model string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, recerrors.NewEmbeddingProviderError(model, err)
	}

	return c.inner.CreateEmbedding(ctx, text, model)
}
