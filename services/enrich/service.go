package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cinetrail/internal/errs"
	"cinetrail/models"
	"cinetrail/services/library"
)

// MetadataSearcher resolves a title (plus optional year hint) to movie
// metadata, or (nil, nil) when nothing matches. Satisfied by tmdb.Client.
type MetadataSearcher interface {
	Search(ctx context.Context, title string, year int) (*models.MovieMetadata, error)
}

// Service runs the enrichment stage: find movies without TMDB metadata,
// search for each, and persist whatever matched.
type Service struct {
	library  *library.Service
	searcher MetadataSearcher
}

// NewService creates an enrichment service.
func NewService(lib *library.Service, searcher MetadataSearcher) *Service {
	return &Service{library: lib, searcher: searcher}
}

// Run enriches all currently unenriched movies. Failures scoped to a single
// movie (search errors, metadata conflicts) are logged and the loop
// continues; only failing to query the batch itself aborts the run. A movie
// is either fully enriched in one write or left untouched.
func (s *Service) Run(ctx context.Context) (models.EnrichSummary, error) {
	var summary models.EnrichSummary

	movies, err := s.library.FindUnenriched(ctx)
	if err != nil {
		return summary, fmt.Errorf("enrich: %w", err)
	}
	if len(movies) == 0 {
		log.Printf("[enrich] no unenriched movies")
		return summary, nil
	}

	log.Printf("[enrich] enriching %d movies", len(movies))
	for i := range movies {
		movie := &movies[i]
		summary.Processed++

		meta, err := s.searcher.Search(ctx, movie.Title, movie.Year)
		if err != nil {
			summary.Failed++
			log.Printf("[enrich] search failed for %q, continuing: %v", movie.Title, err)
			continue
		}
		if meta == nil {
			summary.NotFound++
			log.Printf("[enrich] no TMDB match for %q", movie.Title)
			continue
		}

		if _, err := s.library.ApplyMetadata(ctx, movie.ID, *meta); err != nil {
			summary.Failed++
			switch {
			case errs.IsConflict(err):
				// Another movie already owns this tmdb_id or imdb_id; never
				// overwrite, leave this one unenriched.
				log.Printf("[enrich] metadata for %q collides with an existing movie: %v", movie.Title, err)
			case errors.Is(err, library.ErrAlreadyEnriched):
				log.Printf("[enrich] %q was enriched by a concurrent run", movie.Title)
			default:
				log.Printf("[enrich] failed to persist metadata for %q: %v", movie.Title, err)
			}
			continue
		}

		summary.Enriched++
		log.Printf("[enrich] enriched %q (tmdb %d)", movie.Title, meta.TMDBID)
	}

	log.Printf("[enrich] done, enriched=%d notFound=%d failed=%d of %d",
		summary.Enriched, summary.NotFound, summary.Failed, summary.Processed)
	return summary, nil
}
