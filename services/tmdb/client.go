package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/afero"

	"cinetrail/internal/errs"
	"cinetrail/models"
	"cinetrail/utils/similarity"
)

const (
	tmdbBaseURL = "https://api.themoviedb.org/3"

	requestTimeout = 10 * time.Second
	maxAttempts    = 3
)

// Client searches TMDB for movie metadata. Construction fails fast when the
// API key is missing; a client never silently no-ops.
type Client struct {
	apiKey   string
	language string
	httpc    *http.Client
	cache    *fileCache

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// Options tunes optional client behavior. The zero value is usable.
type Options struct {
	// HTTPClient overrides the default client (primarily for tests).
	HTTPClient *http.Client
	// CacheDir enables on-disk caching of search outcomes when non-empty.
	CacheDir string
	// CacheTTLHours bounds cache entry freshness; defaults to 24.
	CacheTTLHours int
	// CacheFs overrides the cache filesystem (primarily for tests).
	CacheFs afero.Fs
	// MinRequestInterval spaces consecutive TMDB calls.
	MinRequestInterval time.Duration
}

// NewClient creates a TMDB search client.
func NewClient(apiKey, language string, opts Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errs.NewConfiguration("tmdb", "API key is required")
	}

	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: requestTimeout}
	}

	c := &Client{
		apiKey:      apiKey,
		language:    language,
		httpc:       httpc,
		minInterval: opts.MinRequestInterval,
	}

	if opts.CacheDir != "" {
		fs := opts.CacheFs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		c.cache = newFileCache(fs, opts.CacheDir, opts.CacheTTLHours)
	}

	return c, nil
}

func (c *Client) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	if since := time.Since(c.lastRequest); since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

type externalIDsResponse struct {
	IMDBID string `json:"imdb_id"`
}

// Search queries TMDB for a movie by title, with an optional year hint to
// disambiguate remakes (0 means no hint). Returns (nil, nil) when the search
// yields no results. The follow-up external-ids lookup resolving the IMDB id
// degrades gracefully: if it fails, the primary metadata is still returned
// with an empty IMDBID.
func (c *Client) Search(ctx context.Context, title string, year int) (*models.MovieMetadata, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	cacheKey := fmt.Sprintf("%s|%d|%s", strings.ToLower(title), year, c.language)
	if c.cache != nil {
		if entry, ok := c.cache.get(cacheKey); ok {
			if !entry.Found {
				return nil, nil
			}
			return entry.Metadata, nil
		}
	}

	endpoint := tmdbBaseURL + "/search/movie"
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	if lang := strings.TrimSpace(c.language); lang != "" {
		q.Set("language", lang)
	}
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var payload searchResponse
	if err := c.doGET(ctx, endpoint+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	best := pickBestMatch(title, payload.Results)
	if best == nil {
		if c.cache != nil {
			c.cache.put(cacheKey, nil)
		}
		return nil, nil
	}

	meta := &models.MovieMetadata{
		TMDBID:       best.ID,
		Title:        best.Title,
		Overview:     best.Overview,
		ReleaseDate:  best.ReleaseDate,
		PosterPath:   best.PosterPath,
		BackdropPath: best.BackdropPath,
	}

	imdbID, err := c.lookupIMDBID(ctx, best.ID)
	if err != nil {
		// The IMDB id is nice to have; a failed lookup must not lose the
		// primary result.
		log.Printf("[tmdb] external ids lookup failed for %d, continuing without imdb id: %v", best.ID, err)
	} else {
		meta.IMDBID = imdbID
	}

	if c.cache != nil {
		c.cache.put(cacheKey, meta)
	}
	return meta, nil
}

// lookupIMDBID resolves the IMDB id for a TMDB movie.
func (c *Client) lookupIMDBID(ctx context.Context, tmdbID int64) (string, error) {
	endpoint := fmt.Sprintf("%s/movie/%d/external_ids?api_key=%s", tmdbBaseURL, tmdbID, c.apiKey)

	var payload externalIDsResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.IMDBID), nil
}

// pickBestMatch selects the search result whose title is closest to the
// queried one. TMDB orders results by its own relevance, so the first result
// wins ties; a clearly closer title later in the list beats it.
func pickBestMatch(query string, results []searchResult) *searchResult {
	if len(results) == 0 {
		return nil
	}

	best := 0
	bestScore := similarity.Similarity(query, results[0].Title)
	for i := 1; i < len(results); i++ {
		if score := similarity.Similarity(query, results[i].Title); score > bestScore {
			best, bestScore = i, score
		}
	}
	return &results[best]
}

// doGET performs an HTTP GET with rate limiting and bounded retry with
// exponential backoff on transport failures, 429 and server errors.
func (c *Client) doGET(ctx context.Context, endpoint string, v any) error {
	err := retry.Do(
		func() error {
			c.throttle()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return errs.Transport("tmdb: request", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return errs.Transport("tmdb: request", fmt.Errorf("tmdb returned %s", resp.Status))
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("tmdb: decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	return err
}
