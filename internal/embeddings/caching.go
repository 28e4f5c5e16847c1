package embeddings

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// CachingClient wraps a Client with an LRU cache keyed by (model, text).
// Concurrent misses for the same key are collapsed with singleflight so the
// provider sees one call. The cache lives in the embedder collaborator, not
// the ranking pipeline: the store query is still issued fresh on every call.
type CachingClient struct {
	inner     Client
	cache     *lru.Cache[string, []float32]
	loadGroup singleflight.Group
}

var _ Client = (*CachingClient)(nil)

// NewCaching wraps inner with an LRU cache of the given size.
func NewCaching(inner Client, size int) (*CachingClient, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &CachingClient{inner: inner, cache: cache}, nil
}

// CreateEmbedding returns the cached vector for (model, text) or loads it
// from the inner client. Errors are not cached; a later call retries.
func (c *CachingClient) CreateEmbedding(ctx context.Context, text, model string) ([]float32, error) {
	key := model + "\x00" + text

	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	val, err, _ := c.loadGroup.Do(key, func() (any, error) {
		vec, loadErr := c.inner.CreateEmbedding(ctx, text, model)
		if loadErr != nil {
			return nil, loadErr
		}

		c.cache.Add(key, vec)

		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	return val.([]float32), nil
}
