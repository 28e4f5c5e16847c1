package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cinepick/cinepick/internal/models"
	"github.com/cinepick/cinepick/internal/recerrors"
	"github.com/cinepick/cinepick/internal/spaces"
)

// ErrMovieNotFound is returned when no movie row exists for the given ID.
var ErrMovieNotFound = errors.New("movie not found")

// ErrEmbeddingNotFound is returned when a movie has no stored vector for the
// requested embedding space (no row, or the space's column is NULL).
var ErrEmbeddingNotFound = errors.New("embedding not found for movie and space")

// movieColumns is the select list shared by every query returning movies.
const movieColumns = `m.movie_id, m.english_title, m.original_title, m.runtime, m.overview,
	m.genres, m.keywords, m.vote_average, m.vote_count, m.poster_path, m.backdrop_path`

// MoviesRepository handles read access to the movies and
// movie_embedding_openai tables. The ranking core performs no writes;
// rows are created by the ETL and embedding-generation collaborators.
type MoviesRepository struct {
	db *pgxpool.Pool
}

// NewMoviesRepository creates a new movies repository.
func NewMoviesRepository(db *pgxpool.Pool) *MoviesRepository {
	return &MoviesRepository{db: db}
}

// GetByID returns the movie with the given ID.
// Returns ErrMovieNotFound when no row exists; that is an ordinary result,
// not a store failure.
func (r *MoviesRepository) GetByID(ctx context.Context, movieID int64) (*models.Movie, error) {
	var m models.Movie

	err := r.db.QueryRow(ctx,
		`SELECT `+movieColumns+` FROM movies m WHERE m.movie_id = $1`,
		movieID,
	).Scan(
		&m.MovieID, &m.EnglishTitle, &m.OriginalTitle, &m.Runtime, &m.Overview,
		&m.Genres, &m.Keywords, &m.VoteAverage, &m.VoteCount, &m.PosterPath, &m.BackdropPath,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovieNotFound
		}

		return nil, recerrors.NewStoreError("get movie", err)
	}

	return &m, nil
}

// GetEmbedding returns the movie's stored vector for the given space.
// Returns ErrEmbeddingNotFound when the movie is unknown or has no vector in
// that space (generation not run yet); both are valid terminal states.
func (r *MoviesRepository) GetEmbedding(ctx context.Context, movieID int64, space spaces.Space) ([]float32, error) {
	var vec pgvector.Vector

	err := r.db.QueryRow(ctx,
		fmt.Sprintf(
			`SELECT e.%s FROM movie_embedding_openai e WHERE e.movie_id = $1 AND e.%s IS NOT NULL`,
			space.Column, space.Column,
		),
		movieID,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmbeddingNotFound
		}

		return nil, recerrors.NewStoreError("get embedding", err)
	}

	return vec.Slice(), nil
}

// RankQuery parameterizes one ranked candidate query. ScoreExpr is an
// orderable SQL expression over aliases m (movies) and e
// (movie_embedding_openai) with $1 bound to the query vector; the scoring
// package builds it. ExcludeID optionally removes one movie from the
// candidate set (the source movie of a similar-movies query).
type RankQuery struct {
	Space     spaces.Space
	ScoreExpr string
	Vector    []float32
	ExcludeID *int64
	Offset    int
	Limit     int
}

// Rank returns movies joined to their vectors in q.Space, ordered by
// q.ScoreExpr descending with movie_id ascending as the deterministic
// tie-break, then paginated by q.Offset/q.Limit. Movies without a vector in
// the space are excluded. A page beyond the result count returns an empty
// slice, not an error.
func (r *MoviesRepository) Rank(ctx context.Context, q RankQuery) ([]models.RankedMovie, error) {
	args := []any{pgvector.NewVector(q.Vector)}

	exclude := ""
	if q.ExcludeID != nil {
		args = append(args, *q.ExcludeID)
		exclude = fmt.Sprintf(" AND m.movie_id <> $%d", len(args))
	}

	args = append(args, q.Offset)
	offsetArg := len(args)
	args = append(args, q.Limit)
	limitArg := len(args)

	sql := fmt.Sprintf(`
		SELECT `+movieColumns+`, %s AS score
		FROM movies m
		INNER JOIN movie_embedding_openai e ON e.movie_id = m.movie_id
		WHERE e.%s IS NOT NULL%s
		ORDER BY score DESC, m.movie_id ASC
		OFFSET $%d LIMIT $%d`,
		q.ScoreExpr, q.Space.Column, exclude, offsetArg, limitArg,
	)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, recerrors.NewStoreError("rank movies", err)
	}
	defer rows.Close()

	results := []models.RankedMovie{}

	for rows.Next() {
		var rm models.RankedMovie

		if err := rows.Scan(
			&rm.MovieID, &rm.EnglishTitle, &rm.OriginalTitle, &rm.Runtime, &rm.Overview,
			&rm.Genres, &rm.Keywords, &rm.VoteAverage, &rm.VoteCount, &rm.PosterPath, &rm.BackdropPath,
			&rm.Score,
		); err != nil {
			return nil, recerrors.NewStoreError("scan ranked movie", err)
		}

		results = append(results, rm)
	}

	if err := rows.Err(); err != nil {
		return nil, recerrors.NewStoreError("iterating ranked movies", err)
	}

	return results, nil
}
