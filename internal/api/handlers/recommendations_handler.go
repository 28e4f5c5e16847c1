package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cinepick/cinepick/internal/api/response"
	"github.com/cinepick/cinepick/internal/models"
	"github.com/cinepick/cinepick/internal/recerrors"
	"github.com/cinepick/cinepick/internal/scoring"
	"github.com/cinepick/cinepick/internal/service"
	"github.com/cinepick/cinepick/internal/spaces"
)

// RecommendService defines the ranking operations the handler needs.
type RecommendService interface {
	RecommendByText(ctx context.Context, prompt, spaceID, metricVersion string, page, pageSize int) (
		[]models.RankedMovie, error)
	RecommendSimilar(ctx context.Context, movieID int64, spaceID, metricVersion string, page, pageSize int) (
		[]models.RankedMovie, error)
	GetMovieByID(ctx context.Context, movieID int64) (*models.Movie, error)
}

// Defaults holds the deployment defaults applied when a request does not
// name a space or metric. Zero values fall back to the registry defaults.
type Defaults struct {
	Space  string
	Metric string
}

// RecommendationsHandler handles HTTP requests for recommendations,
// similar-movie lookups, and movie detail.
type RecommendationsHandler struct {
	service  RecommendService
	defaults Defaults
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(service RecommendService, defaults Defaults) *RecommendationsHandler {
	if defaults.Space == "" {
		defaults.Space = spaces.DefaultID
	}

	if defaults.Metric == "" {
		defaults.Metric = scoring.DefaultVersion
	}

	return &RecommendationsHandler{service: service, defaults: defaults}
}

// RecommendRequest is the body for POST /v1/recommendations.
type RecommendRequest struct {
	Prompt   string `json:"prompt"`
	Space    string `json:"space,omitempty"`
	Metric   string `json:"metric,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// RecommendResponse is the response for recommendations and similar movies.
// Movies may be empty; an exhausted page is a normal result.
type RecommendResponse struct {
	Movies   []models.RankedMovie `json:"movies"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Space    string               `json:"space"`
	Metric   string               `json:"metric"`
}

const (
	defaultPageSize = 8
	maxPageSize     = 50
)

// Recommend handles POST /v1/recommendations.
func (h *RecommendationsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	spaceID, metricVersion := h.applyDefaults(req.Space, req.Metric)
	page, pageSize := clampPaging(req.Page, req.PageSize)

	results, err := h.service.RecommendByText(r.Context(), req.Prompt, spaceID, metricVersion, page, pageSize)
	if err != nil {
		respondRecommendError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, RecommendResponse{
		Movies:   results,
		Page:     page,
		PageSize: pageSize,
		Space:    spaceID,
		Metric:   metricVersion,
	})
}

// GetMovie handles GET /v1/movies/{id}.
func (h *RecommendationsHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieID, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	movie, err := h.service.GetMovieByID(r.Context(), movieID)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			response.RespondNotFound(w, "Movie not found")

			return
		}

		response.RespondInternalServerError(w, "Failed to load movie")

		return
	}

	response.RespondJSON(w, http.StatusOK, movie)
}

// SimilarMovies handles GET /v1/movies/{id}/similar. A movie without a
// stored vector in the requested space yields an empty list, not a 404.
func (h *RecommendationsHandler) SimilarMovies(w http.ResponseWriter, r *http.Request) {
	movieID, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	spaceID, metricVersion := h.applyDefaults(q.Get("space"), q.Get("metric"))
	page, pageSize := clampPaging(parsePositiveInt(q.Get("page")), parsePositiveInt(q.Get("page_size")))

	results, err := h.service.RecommendSimilar(r.Context(), movieID, spaceID, metricVersion, page, pageSize)
	if err != nil {
		respondRecommendError(w, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, RecommendResponse{
		Movies:   results,
		Page:     page,
		PageSize: pageSize,
		Space:    spaceID,
		Metric:   metricVersion,
	})
}

// respondRecommendError maps pipeline errors onto HTTP statuses. A failed
// embedding call is a retriable 503, distinct from "no results" (200 []).
func respondRecommendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyPrompt):
		response.RespondBadRequest(w, "prompt is required and must be non-empty")
	case errors.Is(err, recerrors.ErrValidation),
		errors.Is(err, recerrors.ErrConfiguration):
		response.RespondBadRequest(w, err.Error())
	case errors.Is(err, recerrors.ErrEmbeddingProvider):
		response.RespondServiceUnavailable(w, "Embedding provider unavailable; retry later")
	default:
		response.RespondInternalServerError(w, "Recommendation failed")
	}
}

func parseMovieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		response.RespondBadRequest(w, "Movie ID is required")

		return 0, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 0 {
		response.RespondBadRequest(w, "Invalid movie ID")

		return 0, false
	}

	return id, true
}

// applyDefaults fills in the deployment defaults for blank space/metric values.
func (h *RecommendationsHandler) applyDefaults(spaceID, metricVersion string) (string, string) {
	if spaceID == "" {
		spaceID = h.defaults.Space
	}

	if metricVersion == "" {
		metricVersion = h.defaults.Metric
	}

	return spaceID, metricVersion
}

// clampPaging applies the 1-indexed paging contract and the page size cap.
func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}

// parsePositiveInt returns the string as a positive int; 0 when absent or invalid.
func parsePositiveInt(s string) int {
	if s == "" {
		return 0
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}

	return n
}
