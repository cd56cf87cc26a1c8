package enrich

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cinetrail/internal/database"
	"cinetrail/models"
	"cinetrail/services/library"
)

type fakeSearcher struct {
	results map[string]*models.MovieMetadata
	errs    map[string]error
	calls   []string
}

func (f *fakeSearcher) Search(ctx context.Context, title string, year int) (*models.MovieMetadata, error) {
	f.calls = append(f.calls, title)
	if err, ok := f.errs[title]; ok {
		return nil, err
	}
	return f.results[title], nil
}

func newTestLibrary(t *testing.T) *library.Service {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "movies.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return library.NewService(db)
}

func mustCreate(t *testing.T, lib *library.Service, title string, year int) *models.Movie {
	t.Helper()
	m, err := lib.Create(context.Background(), library.CreateInput{
		Title:  title,
		Source: models.SourceRottenTomatoes,
		Year:   year,
	})
	if err != nil {
		t.Fatalf("failed to create %q: %v", title, err)
	}
	return m
}

func metadataFor(tmdbID int64, title string) *models.MovieMetadata {
	return &models.MovieMetadata{
		TMDBID:      tmdbID,
		Title:       title,
		Overview:    title + " overview",
		ReleaseDate: "2021-01-01",
	}
}

func TestRunEnrichesMovies(t *testing.T) {
	lib := newTestLibrary(t)
	mustCreate(t, lib, "Dune", 2021)
	mustCreate(t, lib, "Memoria", 0)

	searcher := &fakeSearcher{results: map[string]*models.MovieMetadata{
		"Dune":    metadataFor(438631, "Dune"),
		"Memoria": metadataFor(555537, "Memoria"),
	}}
	svc := NewService(lib, searcher)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 2 || summary.Enriched != 2 {
		t.Errorf("summary = %+v, want processed 2, enriched 2", summary)
	}

	m, err := lib.FindByTitle(context.Background(), "Dune")
	if err != nil {
		t.Fatalf("FindByTitle failed: %v", err)
	}
	if !m.Enriched() || *m.TMDBID != 438631 {
		t.Errorf("Dune not enriched: %+v", m)
	}
}

func TestRunNotFoundLeavesMovieUntouched(t *testing.T) {
	lib := newTestLibrary(t)
	mustCreate(t, lib, "Obscure Film", 0)

	svc := NewService(lib, &fakeSearcher{})

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.NotFound != 1 || summary.Enriched != 0 {
		t.Errorf("summary = %+v, want notFound 1", summary)
	}

	m, err := lib.FindByTitle(context.Background(), "Obscure Film")
	if err != nil {
		t.Fatalf("FindByTitle failed: %v", err)
	}
	if m.Enriched() || m.Overview != "" {
		t.Errorf("not-found movie should stay untouched: %+v", m)
	}
}

func TestRunBatchIsolation(t *testing.T) {
	lib := newTestLibrary(t)
	mustCreate(t, lib, "Alpha", 0)
	mustCreate(t, lib, "Broken", 0)
	mustCreate(t, lib, "Gamma", 0)

	searcher := &fakeSearcher{
		results: map[string]*models.MovieMetadata{
			"Alpha": metadataFor(100, "Alpha"),
			"Gamma": metadataFor(300, "Gamma"),
		},
		errs: map[string]error{
			"Broken": errors.New("tmdb exploded"),
		},
	}
	svc := NewService(lib, searcher)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should complete despite per-movie failure: %v", err)
	}
	if summary.Processed != 3 {
		t.Errorf("processed = %d, want 3", summary.Processed)
	}
	if summary.Enriched != 2 {
		t.Errorf("enriched = %d, want 2", summary.Enriched)
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
	if len(searcher.calls) != 3 {
		t.Errorf("all movies should be searched, got calls %v", searcher.calls)
	}
}

func TestRunConflictNeverOverwrites(t *testing.T) {
	lib := newTestLibrary(t)
	mustCreate(t, lib, "Dune", 2021)
	mustCreate(t, lib, "Dune Remaster", 0)

	// Both titles resolve to the same TMDB movie; the second write must lose.
	searcher := &fakeSearcher{results: map[string]*models.MovieMetadata{
		"Dune":          metadataFor(438631, "Dune"),
		"Dune Remaster": metadataFor(438631, "Dune"),
	}}
	svc := NewService(lib, searcher)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Enriched != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want enriched 1, failed 1", summary)
	}

	stats, err := lib.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Enriched != 1 {
		t.Errorf("enriched count = %d, want 1", stats.Enriched)
	}

	loser, err := lib.FindByTitle(context.Background(), "Dune Remaster")
	if err != nil {
		t.Fatalf("FindByTitle failed: %v", err)
	}
	if loser.Enriched() || loser.Overview != "" {
		t.Errorf("conflicting movie should stay fully unenriched: %+v", loser)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	lib := newTestLibrary(t)
	searcher := &fakeSearcher{}
	svc := NewService(lib, searcher)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Processed != 0 {
		t.Errorf("summary = %+v, want zero", summary)
	}
	if len(searcher.calls) != 0 {
		t.Errorf("no searches expected, got %v", searcher.calls)
	}
}

func TestRunPassesYearHint(t *testing.T) {
	lib := newTestLibrary(t)
	mustCreate(t, lib, "Dune", 2021)

	var gotYear int
	searcher := &searchFunc{fn: func(ctx context.Context, title string, year int) (*models.MovieMetadata, error) {
		gotYear = year
		return metadataFor(438631, title), nil
	}}
	svc := NewService(lib, searcher)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gotYear != 2021 {
		t.Errorf("year hint = %d, want 2021", gotYear)
	}
}

type searchFunc struct {
	fn func(ctx context.Context, title string, year int) (*models.MovieMetadata, error)
}

func (s *searchFunc) Search(ctx context.Context, title string, year int) (*models.MovieMetadata, error) {
	return s.fn(ctx, title, year)
}
