package repository

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cinepick/cinepick/internal/models"
	"github.com/cinepick/cinepick/internal/scoring"
	"github.com/cinepick/cinepick/internal/spaces"
	"github.com/cinepick/cinepick/pkg/database"
)

// vectorAt builds a unit vector whose cosine similarity to the first basis
// vector is exactly sim, using the given axis for the orthogonal remainder.
func vectorAt(sim float64, axis, dims int) []float32 {
	vec := make([]float32, dims)
	vec[0] = float32(sim)
	vec[axis] = float32(math.Sqrt(1 - sim*sim))

	return vec
}

// queryVector is the first basis vector; cosine distance from it to
// vectorAt(sim, ...) is 1-sim.
func queryVector(dims int) []float32 {
	vec := make([]float32, dims)
	vec[0] = 1

	return vec
}

type seedMovie struct {
	id          int64
	title       string
	voteAverage float64
	voteCount   int64
	similarity  float64
	axis        int
}

// The three-movie corpus: B is closest, A is close and popular, C is far.
// v1 orders B, A, C; v3's popularity terms lift A over B.
var seedMovies = []seedMovie{
	{id: 1, title: "A", voteAverage: 9, voteCount: 1000, similarity: 0.9, axis: 1},
	{id: 2, title: "B", voteAverage: 5, voteCount: 2, similarity: 0.95, axis: 2},
	{id: 3, title: "C", voteAverage: 7, voteCount: 50, similarity: 0.7, axis: 3},
}

func setupTestDB(t *testing.T) *MoviesRepository {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithInitScripts(filepath.Join("..", "..", "migrations", "001_init.sql")),
		postgres.WithDatabase("cinepick_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPostgresPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	space, err := spaces.ForID("3-small")
	require.NoError(t, err)

	for _, m := range seedMovies {
		_, err = pool.Exec(ctx,
			`INSERT INTO movies (movie_id, english_title, vote_average, vote_count) VALUES ($1, $2, $3, $4)`,
			m.id, m.title, m.voteAverage, m.voteCount)
		require.NoError(t, err)

		_, err = pool.Exec(ctx,
			`INSERT INTO movie_embedding_openai (movie_id, embedding_3_small) VALUES ($1, $2)`,
			m.id, pgvector.NewVector(vectorAt(m.similarity, m.axis, space.Dimensions)))
		require.NoError(t, err)
	}

	// Movie 4 exists but has no vector in any space.
	_, err = pool.Exec(ctx,
		`INSERT INTO movies (movie_id, english_title, vote_average, vote_count) VALUES (4, 'D', 6, 10)`)
	require.NoError(t, err)

	return NewMoviesRepository(pool)
}

func rankWith(t *testing.T, repo *MoviesRepository, version string, q RankQuery) []models.RankedMovie {
	t.Helper()

	space, err := spaces.ForID("3-small")
	require.NoError(t, err)

	metric, err := scoring.ForVersion(version)
	require.NoError(t, err)

	expr, err := metric.Expression(q.Vector, space)
	require.NoError(t, err)

	q.Space = space
	q.ScoreExpr = expr

	results, err := repo.Rank(context.Background(), q)
	require.NoError(t, err)

	return results
}

func titles(results []models.RankedMovie) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.EnglishTitle)
	}

	return out
}

func TestMoviesRepository(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	space, err := spaces.ForID("3-small")
	require.NoError(t, err)
	query := queryVector(space.Dimensions)

	t.Run("GetByID returns the movie", func(t *testing.T) {
		movie, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "A", movie.EnglishTitle)
		require.NotNil(t, movie.VoteAverage)
		assert.InDelta(t, 9.0, *movie.VoteAverage, 1e-9)
		require.NotNil(t, movie.VoteCount)
		assert.Equal(t, int64(1000), *movie.VoteCount)
	})

	t.Run("GetByID unknown id is ErrMovieNotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99999)
		assert.ErrorIs(t, err, ErrMovieNotFound)
	})

	t.Run("GetEmbedding round-trips the stored vector", func(t *testing.T) {
		vec, err := repo.GetEmbedding(ctx, 2, space)
		require.NoError(t, err)
		require.Len(t, vec, space.Dimensions)
		assert.InDelta(t, 0.95, float64(vec[0]), 1e-6)
	})

	t.Run("GetEmbedding without a vector is ErrEmbeddingNotFound", func(t *testing.T) {
		_, err := repo.GetEmbedding(ctx, 4, space)
		assert.ErrorIs(t, err, ErrEmbeddingNotFound)

		_, err = repo.GetEmbedding(ctx, 99999, space)
		assert.ErrorIs(t, err, ErrEmbeddingNotFound)
	})

	t.Run("v1 ranks by pure similarity", func(t *testing.T) {
		results := rankWith(t, repo, "v1", RankQuery{Vector: query, Offset: 0, Limit: 10})
		assert.Equal(t, []string{"B", "A", "C"}, titles(results))
	})

	t.Run("v3 popularity boost reorders the head", func(t *testing.T) {
		results := rankWith(t, repo, "v3", RankQuery{Vector: query, Offset: 0, Limit: 10})
		assert.Equal(t, []string{"A", "B", "C"}, titles(results))

		assert.InDelta(t, 0.96301, results[0].Score, 1e-4)
		assert.InDelta(t, 0.90431, results[1].Score, 1e-4)
		assert.InDelta(t, 0.73023, results[2].Score, 1e-4)
	})

	t.Run("movies without a vector never appear", func(t *testing.T) {
		results := rankWith(t, repo, "v3", RankQuery{Vector: query, Offset: 0, Limit: 10})
		assert.NotContains(t, titles(results), "D")
	})

	t.Run("pagination partitions the ordering", func(t *testing.T) {
		first := rankWith(t, repo, "v3", RankQuery{Vector: query, Offset: 0, Limit: 2})
		second := rankWith(t, repo, "v3", RankQuery{Vector: query, Offset: 2, Limit: 2})

		require.Len(t, first, 2)
		require.Len(t, second, 1)
		assert.Equal(t, []string{"A", "B"}, titles(first))
		assert.Equal(t, []string{"C"}, titles(second))
	})

	t.Run("page beyond the corpus is empty, not an error", func(t *testing.T) {
		results := rankWith(t, repo, "v3", RankQuery{Vector: query, Offset: 100, Limit: 10})
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("ExcludeID removes the source movie", func(t *testing.T) {
		sourceVec, err := repo.GetEmbedding(ctx, 2, space)
		require.NoError(t, err)

		sourceID := int64(2)
		results := rankWith(t, repo, "v3", RankQuery{
			Vector:    sourceVec,
			ExcludeID: &sourceID,
			Offset:    0,
			Limit:     10,
		})

		assert.NotContains(t, titles(results), "B")
		assert.Len(t, results, 2)
	})

	t.Run("identical queries return identical pages", func(t *testing.T) {
		first := rankWith(t, repo, "v2", RankQuery{Vector: query, Offset: 0, Limit: 3})
		second := rankWith(t, repo, "v2", RankQuery{Vector: query, Offset: 0, Limit: 3})
		assert.Equal(t, first, second)
	})
}
