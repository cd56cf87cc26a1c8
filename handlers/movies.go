package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"cinetrail/models"
	"cinetrail/services/library"
)

type libraryService interface {
	List(ctx context.Context) ([]models.Movie, error)
	Stats(ctx context.Context) (models.LibraryStats, error)
}

var _ libraryService = (*library.Service)(nil)

// MoviesHandler serves the read-only movie library projection.
type MoviesHandler struct {
	Library libraryService
}

func NewMoviesHandler(lib libraryService) *MoviesHandler {
	return &MoviesHandler{Library: lib}
}

// ListMovies returns all movies, most recently created first. Movies without
// TMDB metadata are returned as-is; the frontend renders them as not yet
// enriched.
func (h *MoviesHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.Library.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"movies": movies,
		"total":  len(movies),
	})
}

// GetStats returns the enriched/total counts for the library.
func (h *MoviesHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Library.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
