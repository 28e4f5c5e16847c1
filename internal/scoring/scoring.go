// Package scoring provides the score-metric strategy set: interchangeable,
// versioned ranking formulas combining vector similarity with popularity
// signals. Each metric produces a Postgres expression evaluated by the store
// per candidate row ($1 is bound to the query vector), plus an in-process
// counterpart of the same formula.
//
// Similarity is always the primary signal; popularity terms are log-damped
// (v2) or capped (v3) so a single blockbuster cannot swamp ranking for
// unrelated queries. The distance operator is cosine (<=>) and must match
// the metric used at embedding-generation time.
package scoring

import (
	"fmt"
	"math"

	"github.com/cinepick/cinepick/internal/recerrors"
	"github.com/cinepick/cinepick/internal/spaces"
)

// Metric is one versioned ranking formula. Implementations are pure:
// deterministic for identical inputs, no randomness, no time dependence.
// Higher score = better match.
type Metric interface {
	// Version returns the stable version tag ("v1", "v2", "v3").
	Version() string

	// Expression returns the SQL scoring expression for the given query
	// vector and space, with $1 bound to the vector. Fails with a
	// DimensionalityMismatchError when len(query) != space.Dimensions.
	Expression(query []float32, space spaces.Space) (string, error)

	// Score computes the same formula in-process from a cosine distance and
	// the candidate's popularity scalars. distance is in [0,2]; voteAverage
	// is in [0,10]; voteCount >= 0.
	Score(distance, voteAverage float64, voteCount int64) float64
}

// DefaultVersion is the metric used when a request does not name one.
const DefaultVersion = "v3"

// ForVersion returns the metric registered under the given version tag.
func ForVersion(version string) (Metric, error) {
	switch version {
	case "v1":
		return MetricV1{}, nil
	case "v2":
		return MetricV2{}, nil
	case "v3":
		return MetricV3{}, nil
	default:
		return nil, recerrors.NewConfigurationError("score_metric", "unknown score metric version: "+version)
	}
}

// Versions returns the registered version tags in order of introduction.
func Versions() []string {
	return []string{"v1", "v2", "v3"}
}

// similaritySQL returns the cosine-similarity fragment (1 - distance) for the
// space's vector column, after checking the query vector's dimensionality.
func similaritySQL(query []float32, space spaces.Space) (string, error) {
	if err := space.CheckDimensions(len(query)); err != nil {
		return "", err
	}

	return fmt.Sprintf("(1 - (e.%s <=> $1))", space.Column), nil
}

// MetricV1 ranks by cosine similarity alone:
//
//	score = 1 - distance
type MetricV1 struct{}

// Version returns "v1".
func (MetricV1) Version() string { return "v1" }

// Expression returns the v1 SQL scoring expression.
func (MetricV1) Expression(query []float32, space spaces.Space) (string, error) {
	return similaritySQL(query, space)
}

// Score computes the v1 formula in-process.
func (MetricV1) Score(distance, _ float64, _ int64) float64 {
	return 1 - distance
}

// MetricV2 blends similarity with popularity. The vote-count term is
// log-damped but unbounded, so it can still dominate for viral titles:
//
//	score = 0.8*(1-distance) + 0.2*(vote_average/10) + 0.1*log10(1+vote_count)
type MetricV2 struct{}

// Version returns "v2".
func (MetricV2) Version() string { return "v2" }

// Expression returns the v2 SQL scoring expression.
func (MetricV2) Expression(query []float32, space spaces.Space) (string, error) {
	sim, err := similaritySQL(query, space)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"0.8 * %s + 0.2 * (COALESCE(m.vote_average, 0) / 10.0) + 0.1 * log(1 + COALESCE(m.vote_count, 0))",
		sim,
	), nil
}

// Score computes the v2 formula in-process. log matches Postgres log() (base 10).
func (MetricV2) Score(distance, voteAverage float64, voteCount int64) float64 {
	return 0.8*(1-distance) + 0.2*(voteAverage/10) + 0.1*math.Log10(1+float64(voteCount))
}

// MetricV3 weights similarity more heavily and caps the vote-count term at 10,
// bounding the total popularity contribution at 0.07 + 0.03*10 = 0.37:
//
//	score = 0.9*(1-distance) + 0.07*(vote_average/10) + 0.03*least(10, log10(1+vote_count))
type MetricV3 struct{}

// Version returns "v3".
func (MetricV3) Version() string { return "v3" }

// Expression returns the v3 SQL scoring expression.
func (MetricV3) Expression(query []float32, space spaces.Space) (string, error) {
	sim, err := similaritySQL(query, space)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"0.9 * %s + 0.07 * (COALESCE(m.vote_average, 0) / 10.0) + 0.03 * least(10, log(1 + COALESCE(m.vote_count, 0)))",
		sim,
	), nil
}

// Score computes the v3 formula in-process.
func (MetricV3) Score(distance, voteAverage float64, voteCount int64) float64 {
	return 0.9*(1-distance) + 0.07*(voteAverage/10) + 0.03*math.Min(10, math.Log10(1+float64(voteCount)))
}
