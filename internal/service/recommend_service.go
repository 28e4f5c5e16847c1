// Package service implements the ranking pipeline: resolve a query vector
// (from free text or from a stored movie's own vector), build a score
// expression, and issue an ordered, paginated candidate query against the
// store. Every operation is read-only, stateless, and idempotent; identical
// inputs yield identical ordered results while the corpus is unchanged.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cinepick/cinepick/internal/embeddings"
	"github.com/cinepick/cinepick/internal/models"
	"github.com/cinepick/cinepick/internal/recerrors"
	"github.com/cinepick/cinepick/internal/repository"
	"github.com/cinepick/cinepick/internal/scoring"
	"github.com/cinepick/cinepick/internal/spaces"
)

// Sentinel errors for recommendations (used by handlers for status mapping).
var (
	ErrEmptyPrompt   = errors.New("prompt is required and must be non-empty")
	ErrMovieNotFound = repository.ErrMovieNotFound
)

// MoviesRepository provides the store operations the pipeline needs: point
// lookups and the ranked, paginated candidate query.
type MoviesRepository interface {
	GetByID(ctx context.Context, movieID int64) (*models.Movie, error)
	GetEmbedding(ctx context.Context, movieID int64, space spaces.Space) ([]float32, error)
	Rank(ctx context.Context, q repository.RankQuery) ([]models.RankedMovie, error)
}

// RecommendService orchestrates embedding, scoring, and ranked retrieval.
// It holds no mutable state; any number of calls may run concurrently.
type RecommendService struct {
	embedder embeddings.Client
	repo     MoviesRepository
	logger   *slog.Logger
}

// RecommendServiceParams configures RecommendService. Logger may be nil.
type RecommendServiceParams struct {
	Embedder embeddings.Client
	Repo     MoviesRepository
	Logger   *slog.Logger
}

// NewRecommendService creates a RecommendService.
func NewRecommendService(p RecommendServiceParams) *RecommendService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RecommendService{
		embedder: p.Embedder,
		repo:     p.Repo,
		logger:   logger,
	}
}

// RecommendByText embeds the prompt in the requested space, scores every
// candidate with the requested metric, and returns page pageSize-sized pages
// of movies in rank order. A page past the end of the results is an empty
// slice, not an error. Embedding failures surface as
// *recerrors.EmbeddingProviderError and are never retried here.
func (s *RecommendService) RecommendByText(
	ctx context.Context, prompt, spaceID, metricVersion string, page, pageSize int,
) ([]models.RankedMovie, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	space, metric, offset, err := s.resolve(spaceID, metricVersion, page, pageSize)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.CreateEmbedding(ctx, prompt, space.Model)
	if err != nil {
		s.logger.Error("recommend by text: create embedding failed",
			"error", err, "space", space.ID, "metric", metric.Version())

		return nil, err
	}

	expr, err := metric.Expression(vector, space)
	if err != nil {
		return nil, err
	}

	results, err := s.repo.Rank(ctx, repository.RankQuery{
		Space:     space,
		ScoreExpr: expr,
		Vector:    vector,
		Offset:    offset,
		Limit:     pageSize,
	})
	if err != nil {
		s.logger.Error("recommend by text: rank failed",
			"error", err, "space", space.ID, "metric", metric.Version())

		return nil, fmt.Errorf("rank movies: %w", err)
	}

	return results, nil
}

// RecommendSimilar ranks movies against the stored vector of movieID in the
// requested space, excluding movieID itself from the candidates. A movie
// that is unknown or has no vector in the space yields an empty result — a
// valid terminal state, not a failure. Offset is honored for every metric
// version.
func (s *RecommendService) RecommendSimilar(
	ctx context.Context, movieID int64, spaceID, metricVersion string, page, pageSize int,
) ([]models.RankedMovie, error) {
	space, metric, offset, err := s.resolve(spaceID, metricVersion, page, pageSize)
	if err != nil {
		return nil, err
	}

	vector, err := s.repo.GetEmbedding(ctx, movieID, space)
	if err != nil {
		if errors.Is(err, repository.ErrEmbeddingNotFound) {
			s.logger.Debug("recommend similar: no vector for movie",
				"movie_id", movieID, "space", space.ID)

			return []models.RankedMovie{}, nil
		}

		s.logger.Error("recommend similar: get embedding failed", "error", err, "movie_id", movieID)

		return nil, fmt.Errorf("get embedding: %w", err)
	}

	expr, err := metric.Expression(vector, space)
	if err != nil {
		return nil, err
	}

	results, err := s.repo.Rank(ctx, repository.RankQuery{
		Space:     space,
		ScoreExpr: expr,
		Vector:    vector,
		ExcludeID: &movieID,
		Offset:    offset,
		Limit:     pageSize,
	})
	if err != nil {
		s.logger.Error("recommend similar: rank failed",
			"error", err, "movie_id", movieID, "space", space.ID)

		return nil, fmt.Errorf("rank movies: %w", err)
	}

	return results, nil
}

// GetMovieByID returns the movie or repository.ErrMovieNotFound.
// Not-found is an ordinary result; handlers map it to 404.
func (s *RecommendService) GetMovieByID(ctx context.Context, movieID int64) (*models.Movie, error) {
	movie, err := s.repo.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			//nolint:wrapcheck // return as-is so handler can map to 404
			return nil, err
		}

		s.logger.Error("get movie failed", "error", err, "movie_id", movieID)

		return nil, fmt.Errorf("get movie: %w", err)
	}

	return movie, nil
}

// resolve validates pagination and looks up the space and metric.
// page is 1-indexed; offset = (page-1)*pageSize.
func (s *RecommendService) resolve(
	spaceID, metricVersion string, page, pageSize int,
) (spaces.Space, scoring.Metric, int, error) {
	if page < 1 {
		return spaces.Space{}, nil, 0, recerrors.NewValidationError("page", "page must be >= 1")
	}

	if pageSize < 1 {
		return spaces.Space{}, nil, 0, recerrors.NewValidationError("page_size", "page_size must be >= 1")
	}

	space, err := spaces.ForID(spaceID)
	if err != nil {
		return spaces.Space{}, nil, 0, err
	}

	metric, err := scoring.ForVersion(metricVersion)
	if err != nil {
		return spaces.Space{}, nil, 0, err
	}

	return space, metric, (page - 1) * pageSize, nil
}
