package ingest

import (
	"context"
	"fmt"
	"log"

	"cinetrail/models"
	"cinetrail/services/library"
)

// Fetcher produces the raw video records for one channel and knows how to
// parse that channel's title convention. Satisfied by youtube.Fetcher.
type Fetcher interface {
	Source() models.Source
	Fetch(ctx context.Context) ([]models.RawVideo, error)
	Parse(title string) (models.ParsedTitle, bool)
}

// Service runs the ingestion stage: fetch raw videos, parse titles, and
// create unenriched movies for titles not yet in the library.
type Service struct {
	library *library.Service
}

// NewService creates an ingestion service.
func NewService(lib *library.Service) *Service {
	return &Service{library: lib}
}

// Run ingests one source. Records whose titles do not parse as official
// trailers are dropped without counting; parsed titles already in the
// library count as skipped. A fetch failure aborts the run before any
// record is processed and propagates so the scheduler can retry; a store
// failure mid-run aborts with whatever was already committed in place.
func (s *Service) Run(ctx context.Context, fetcher Fetcher) (models.IngestSummary, error) {
	source := fetcher.Source()
	summary := models.IngestSummary{Source: source}

	videos, err := fetcher.Fetch(ctx)
	if err != nil {
		return summary, fmt.Errorf("ingest %s: %w", source, err)
	}
	summary.Fetched = len(videos)

	if len(videos) == 0 {
		log.Printf("[ingest] %s: feed returned no videos", source)
		return summary, nil
	}

	for _, video := range videos {
		parsed, ok := fetcher.Parse(video.Title)
		if !ok {
			log.Printf("[ingest] %s: not a trailer, dropping %q", source, video.Title)
			continue
		}

		existing, err := s.library.FindByTitle(ctx, parsed.Title)
		if err != nil {
			return summary, fmt.Errorf("ingest %s: %w", source, err)
		}
		if existing != nil {
			summary.Skipped++
			log.Printf("[ingest] %s: skipped %q (already tracked)", source, parsed.Title)
			continue
		}

		if _, err := s.library.Create(ctx, library.CreateInput{
			Title:         parsed.Title,
			OriginalTitle: video.Title,
			Source:        source,
			VideoID:       video.VideoID,
			Year:          parsed.Year,
		}); err != nil {
			return summary, fmt.Errorf("ingest %s: %w", source, err)
		}
		summary.Created++
		log.Printf("[ingest] %s: created %q", source, parsed.Title)
	}

	log.Printf("[ingest] %s: done, created=%d skipped=%d of %d fetched",
		source, summary.Created, summary.Skipped, summary.Fetched)
	return summary, nil
}
