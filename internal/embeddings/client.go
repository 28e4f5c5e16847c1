// Package embeddings provides clients that turn free text into embedding
// vectors. The ranking pipeline depends only on the Client interface; the
// OpenAI implementation, the deterministic mock, and the rate-limiting and
// caching decorators all satisfy it.
package embeddings

import "context"

// Client converts text into a vector using the named provider model.
// Failures are reported as *recerrors.EmbeddingProviderError; the client
// does not retry internally. The whole ranking operation is idempotent, so
// callers may retry it with backoff.
type Client interface {
	CreateEmbedding(ctx context.Context, text, model string) ([]float32, error)
}
