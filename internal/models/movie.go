package models

// Movie represents one row in the movies table. The identifier is immutable
// and unique; popularity scalars, when present, are non-negative. Genres and
// keywords are serialized tag lists as loaded by the ETL.
type Movie struct {
	MovieID       int64    `json:"movie_id"`
	EnglishTitle  string   `json:"english_title"`
	OriginalTitle *string  `json:"original_title,omitempty"`
	Runtime       *float64 `json:"runtime,omitempty"`
	Overview      *string  `json:"overview,omitempty"`
	Genres        *string  `json:"genres,omitempty"`
	Keywords      *string  `json:"keywords,omitempty"`
	VoteAverage   *float64 `json:"vote_average,omitempty"`
	VoteCount     *int64   `json:"vote_count,omitempty"`
	PosterPath    *string  `json:"poster_path,omitempty"`
	BackdropPath  *string  `json:"backdrop_path,omitempty"`
}

// RankedMovie is a movie with its composite score for one query.
// Scores are comparable only within a single (space, metric) pair.
type RankedMovie struct {
	Movie
	Score float64 `json:"score"`
}
