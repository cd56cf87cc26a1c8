package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"cinetrail/internal/errs"
	"cinetrail/models"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrAlreadyEnriched = errors.New("movie is already enriched")
	ErrMovieNotFound   = errors.New("movie not found")
)

// Service manages persistence of the movie library.
type Service struct {
	db *sql.DB
}

// NewService creates a library service on top of an opened database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const movieColumns = `id, title, original_title, source, video_id, year,
	tmdb_id, imdb_id, overview, release_date, poster_path, backdrop_path,
	created_at, updated_at`

// CreateInput carries the fields ingestion provides for a new movie.
type CreateInput struct {
	Title         string
	OriginalTitle string
	Source        models.Source
	VideoID       string
	Year          int
}

// FindByTitle looks up a movie by its canonical title. Returns (nil, nil)
// when no movie has that title. Titles are not unique in the store; the
// oldest match wins, which is all the dedup check needs.
func (s *Service) FindByTitle(ctx context.Context, title string) (*models.Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE title = ? ORDER BY created_at ASC LIMIT 1`, title)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find movie by title: %w", err)
	}
	return m, nil
}

// Create inserts a new unenriched movie and returns it.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Movie, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	now := time.Now().UTC()
	m := &models.Movie{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(input.Title),
		OriginalTitle: input.OriginalTitle,
		Source:        input.Source,
		VideoID:       input.VideoID,
		Year:          input.Year,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO movies (id, title, original_title, source, video_id, year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.OriginalTitle, string(m.Source), m.VideoID, nullableInt(m.Year), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, mapConstraintErr(err, fmt.Errorf("create movie: %w", err))
	}
	return m, nil
}

// FindUnenriched returns all movies without TMDB metadata, oldest first so
// long-waiting entries are enriched before fresh ones.
func (s *Service) FindUnenriched(ctx context.Context) ([]models.Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE tmdb_id IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query unenriched movies: %w", err)
	}
	defer rows.Close()
	return collectMovies(rows)
}

// ApplyMetadata fills the enrichment fields on an unenriched movie. All
// fields are written together in a single statement so a movie is either
// fully enriched or untouched. Fails with ErrAlreadyEnriched when the movie
// already carries a tmdb_id, and with a ConflictError when the metadata's
// tmdb_id or imdb_id is already taken by another movie.
func (s *Service) ApplyMetadata(ctx context.Context, movieID string, meta models.MovieMetadata) (*models.Movie, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE movies
		 SET tmdb_id = ?, imdb_id = ?, overview = ?, release_date = ?,
		     poster_path = ?, backdrop_path = ?, updated_at = ?
		 WHERE id = ? AND tmdb_id IS NULL`,
		meta.TMDBID, nullableString(meta.IMDBID), nullableString(meta.Overview),
		nullableString(meta.ReleaseDate), nullableString(meta.PosterPath),
		nullableString(meta.BackdropPath), now, movieID)
	if err != nil {
		return nil, mapConstraintErr(err, fmt.Errorf("apply metadata: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("apply metadata: %w", err)
	}
	if affected == 0 {
		// Either the movie is gone or it was enriched in the meantime.
		existing, lookupErr := s.findByID(ctx, movieID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing == nil {
			return nil, ErrMovieNotFound
		}
		return nil, ErrAlreadyEnriched
	}

	return s.findByID(ctx, movieID)
}

// List returns all movies, most recently created first.
func (s *Service) List(ctx context.Context) ([]models.Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()
	return collectMovies(rows)
}

// Stats returns the total and enriched movie counts.
func (s *Service) Stats(ctx context.Context) (models.LibraryStats, error) {
	var stats models.LibraryStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(tmdb_id) FROM movies`).Scan(&stats.Total, &stats.Enriched)
	if err != nil {
		return models.LibraryStats{}, fmt.Errorf("library stats: %w", err)
	}
	return stats, nil
}

func (s *Service) findByID(ctx context.Context, id string) (*models.Movie, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var (
		m           models.Movie
		year        sql.NullInt64
		tmdbID      sql.NullInt64
		imdbID      sql.NullString
		overview    sql.NullString
		releaseDate sql.NullString
		posterPath  sql.NullString
		backdrop    sql.NullString
		source      string
	)

	err := row.Scan(&m.ID, &m.Title, &m.OriginalTitle, &source, &m.VideoID, &year,
		&tmdbID, &imdbID, &overview, &releaseDate, &posterPath, &backdrop,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.Source = models.Source(source)
	if year.Valid {
		m.Year = int(year.Int64)
	}
	if tmdbID.Valid {
		id := tmdbID.Int64
		m.TMDBID = &id
	}
	m.IMDBID = imdbID.String
	m.Overview = overview.String
	m.ReleaseDate = releaseDate.String
	m.PosterPath = posterPath.String
	m.BackdropPath = backdrop.String
	return &m, nil
}

func collectMovies(rows *sql.Rows) ([]models.Movie, error) {
	movies := make([]models.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// mapConstraintErr converts sqlite unique constraint violations into a
// ConflictError naming the offending column; other errors pass through as
// fallback.
func mapConstraintErr(err error, fallback error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return fallback
	}
	if se.ExtendedCode != sqlite3.ErrConstraintUnique && se.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return fallback
	}

	// sqlite reports "UNIQUE constraint failed: movies.tmdb_id"
	field := "unknown"
	if idx := strings.LastIndex(se.Error(), "movies."); idx >= 0 {
		field = se.Error()[idx+len("movies."):]
	}
	return errs.Conflict(field, err)
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
