// Package spaces enumerates the embedding spaces available for ranking.
// Each space binds one provider model to one stored vector column in
// movie_embedding_openai. Adding a space only requires a new entry here;
// the scoring and ranking code is unchanged.
package spaces

import (
	"github.com/cinepick/cinepick/internal/recerrors"
)

// Space identifies a provider model, its vector dimensionality, and the
// column holding its vectors. Immutable configuration, not runtime state.
type Space struct {
	// ID is the stable identifier used in requests and configuration.
	ID string
	// Model is the provider-side model name sent on embedding calls.
	Model string
	// Dimensions is the fixed vector length for this space.
	Dimensions int
	// Column is the vector column in movie_embedding_openai.
	Column string
}

// DefaultID is the space used when a request does not name one.
const DefaultID = "3-large"

var registry = []Space{
	{ID: "ada-002", Model: "text-embedding-ada-002", Dimensions: 1536, Column: "embedding_ada_002"},
	{ID: "3-small", Model: "text-embedding-3-small", Dimensions: 1536, Column: "embedding_3_small"},
	{ID: "3-large", Model: "text-embedding-3-large", Dimensions: 3072, Column: "embedding_3_large"},
}

// ForID returns the space with the given identifier.
// Unknown identifiers are a configuration error, not a lookup miss.
func ForID(id string) (Space, error) {
	for _, s := range registry {
		if s.ID == id {
			return s, nil
		}
	}

	return Space{}, recerrors.NewConfigurationError("embedding_space", "unknown embedding space: "+id)
}

// All returns every registered space, in registration order.
func All() []Space {
	out := make([]Space, len(registry))
	copy(out, registry)

	return out
}

// CheckDimensions verifies that a vector of length n belongs in this space.
// A mismatch is a hard error; vectors are never truncated or padded.
func (s Space) CheckDimensions(n int) error {
	if n != s.Dimensions {
		return recerrors.NewDimensionalityMismatchError(s.ID, s.Dimensions, n)
	}

	return nil
}
