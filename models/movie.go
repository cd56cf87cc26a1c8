package models

import "time"

// Source identifies the upstream channel a raw title came from.
type Source string

const (
	SourceRottenTomatoes Source = "rottentomatoes"
	SourceMubi           Source = "mubi"
)

// RawVideo is one entry from a channel feed before any title parsing.
type RawVideo struct {
	Title        string    `json:"title"`
	VideoID      string    `json:"videoId"`
	PublishedAt  time.Time `json:"publishedAt,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

// ParsedTitle is the parser output for an accepted trailer title.
// Year is 0 when the source format carries no year.
type ParsedTitle struct {
	Title string
	Year  int
}

// Movie is the persisted entity. It is created unenriched by ingestion and
// filled in exactly once by the TMDB enrichment pass; TMDBID == nil means
// the record has not been enriched yet.
type Movie struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"originalTitle"`
	Source        Source    `json:"source"`
	VideoID       string    `json:"videoId"`
	Year          int       `json:"year,omitempty"`
	TMDBID        *int64    `json:"tmdbId,omitempty"`
	IMDBID        string    `json:"imdbId,omitempty"`
	Overview      string    `json:"overview,omitempty"`
	ReleaseDate   string    `json:"releaseDate,omitempty"` // YYYY-MM-DD
	PosterPath    string    `json:"posterPath,omitempty"`
	BackdropPath  string    `json:"backdropPath,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Enriched reports whether the movie already carries TMDB metadata.
func (m *Movie) Enriched() bool {
	return m.TMDBID != nil
}

// MovieMetadata is the result of one TMDB search, already reduced to the
// fields we persist. IMDBID may be empty when the external-ids lookup
// degraded (see tmdb.Client.Search).
type MovieMetadata struct {
	TMDBID       int64  `json:"tmdbId"`
	IMDBID       string `json:"imdbId,omitempty"`
	Title        string `json:"title"`
	Overview     string `json:"overview,omitempty"`
	ReleaseDate  string `json:"releaseDate,omitempty"`
	PosterPath   string `json:"posterPath,omitempty"`
	BackdropPath string `json:"backdropPath,omitempty"`
}

// IngestSummary reports one ingestion run.
type IngestSummary struct {
	Source  Source `json:"source"`
	Fetched int    `json:"fetched"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}

// EnrichSummary reports one enrichment run.
type EnrichSummary struct {
	Processed int `json:"processed"`
	Enriched  int `json:"enriched"`
	NotFound  int `json:"notFound"`
	Failed    int `json:"failed"`
}

// LibraryStats is the read-only projection served to the frontend.
type LibraryStats struct {
	Total    int `json:"total"`
	Enriched int `json:"enriched"`
}
