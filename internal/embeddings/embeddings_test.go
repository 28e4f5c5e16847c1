package embeddings

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinepick/cinepick/internal/recerrors"
)

type funcClient struct {
	fn func(ctx context.Context, text, model string) ([]float32, error)
}

func (c *funcClient) CreateEmbedding(ctx context.Context, text, model string) ([]float32, error) {
	return c.fn(ctx, text, model)
}

func TestMockClient(t *testing.T) {
	client := NewMockClient()

	t.Run("deterministic per text", func(t *testing.T) {
		a, err := client.CreateEmbedding(context.Background(), "space opera", "text-embedding-3-large")
		require.NoError(t, err)
		b, err := client.CreateEmbedding(context.Background(), "space opera", "text-embedding-3-large")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("dimensionality follows the space registry", func(t *testing.T) {
		large, err := client.CreateEmbedding(context.Background(), "x", "text-embedding-3-large")
		require.NoError(t, err)
		assert.Len(t, large, 3072)

		small, err := client.CreateEmbedding(context.Background(), "x", "text-embedding-3-small")
		require.NoError(t, err)
		assert.Len(t, small, 1536)
	})

	t.Run("vectors are unit length", func(t *testing.T) {
		vec, err := client.CreateEmbedding(context.Background(), "noir detective", "text-embedding-ada-002")
		require.NoError(t, err)

		var sum float64
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}

		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-3)
	})

	t.Run("empty text is a provider error", func(t *testing.T) {
		_, err := client.CreateEmbedding(context.Background(), "", "text-embedding-3-large")
		assert.ErrorIs(t, err, recerrors.ErrEmbeddingProvider)
	})
}

func TestCachingClient(t *testing.T) {
	t.Run("second call for same key hits the cache", func(t *testing.T) {
		var calls atomic.Int64

		inner := &funcClient{fn: func(_ context.Context, _, _ string) ([]float32, error) {
			calls.Add(1)

			return []float32{0.1, 0.2}, nil
		}}

		cached, err := NewCaching(inner, 16)
		require.NoError(t, err)

		first, err := cached.CreateEmbedding(context.Background(), "western", "m1")
		require.NoError(t, err)
		second, err := cached.CreateEmbedding(context.Background(), "western", "m1")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("same text under different models is cached separately", func(t *testing.T) {
		var calls atomic.Int64

		inner := &funcClient{fn: func(_ context.Context, _, model string) ([]float32, error) {
			calls.Add(1)

			if model == "m1" {
				return []float32{1}, nil
			}

			return []float32{2}, nil
		}}

		cached, err := NewCaching(inner, 16)
		require.NoError(t, err)

		a, err := cached.CreateEmbedding(context.Background(), "western", "m1")
		require.NoError(t, err)
		b, err := cached.CreateEmbedding(context.Background(), "western", "m2")
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		var calls atomic.Int64

		inner := &funcClient{fn: func(_ context.Context, _, model string) ([]float32, error) {
			if calls.Add(1) == 1 {
				return nil, recerrors.NewEmbeddingProviderError(model, errors.New("timeout"))
			}

			return []float32{0.5}, nil
		}}

		cached, err := NewCaching(inner, 16)
		require.NoError(t, err)

		_, err = cached.CreateEmbedding(context.Background(), "western", "m1")
		assert.ErrorIs(t, err, recerrors.ErrEmbeddingProvider)

		vec, err := cached.CreateEmbedding(context.Background(), "western", "m1")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5}, vec)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("concurrent misses collapse to one provider call", func(t *testing.T) {
		var calls atomic.Int64

		release := make(chan struct{})
		inner := &funcClient{fn: func(_ context.Context, _, _ string) ([]float32, error) {
			calls.Add(1)
			<-release

			return []float32{0.9}, nil
		}}

		cached, err := NewCaching(inner, 16)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				vec, err := cached.CreateEmbedding(context.Background(), "western", "m1")
				assert.NoError(t, err)
				assert.Equal(t, []float32{0.9}, vec)
			}()
		}

		close(release)
		wg.Wait()

		assert.Equal(t, int64(1), calls.Load())
	})
}

func TestRateLimitedClient(t *testing.T) {
	t.Run("delegates to inner client", func(t *testing.T) {
		inner := &funcClient{fn: func(_ context.Context, text, model string) ([]float32, error) {
			assert.Equal(t, "western", text)
			assert.Equal(t, "m1", model)

			return []float32{0.3}, nil
		}}

		limited := NewRateLimited(inner, 100)
		vec, err := limited.CreateEmbedding(context.Background(), "western", "m1")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.3}, vec)
	})

	t.Run("cancelled context surfaces as provider error", func(t *testing.T) {
		inner := &funcClient{fn: func(_ context.Context, _, _ string) ([]float32, error) {
			t.Fatal("inner client must not be called after cancellation")

			return nil, nil
		}}

		limited := NewRateLimited(inner, 0.001)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := limited.CreateEmbedding(ctx, "western", "m1")
		assert.ErrorIs(t, err, recerrors.ErrEmbeddingProvider)
	})
}
