package tmdb

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"cinetrail/models"
)

// fileCache stores search outcomes on disk so repeated enrichment runs do
// not re-query TMDB for titles it has already resolved (or already failed
// to resolve) inside the TTL window.
type fileCache struct {
	fs  afero.Fs
	dir string
	ttl time.Duration
}

type cacheEntry struct {
	FetchedAt time.Time             `json:"fetchedAt"`
	Found     bool                  `json:"found"`
	Metadata  *models.MovieMetadata `json:"metadata,omitempty"`
}

func newFileCache(fs afero.Fs, dir string, ttlHours int) *fileCache {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &fileCache{
		fs:  fs,
		dir: dir,
		ttl: time.Duration(ttlHours) * time.Hour,
	}
}

func (c *fileCache) path(key string) string {
	sum := sha1.Sum([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// get returns the cached outcome for key. The second return value is false
// when there is no fresh entry.
func (c *fileCache) get(key string) (cacheEntry, bool) {
	data, err := afero.ReadFile(c.fs, c.path(key))
	if err != nil {
		return cacheEntry{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return cacheEntry{}, false
	}
	if time.Since(entry.FetchedAt) > c.ttl {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *fileCache) put(key string, meta *models.MovieMetadata) {
	entry := cacheEntry{
		FetchedAt: time.Now().UTC(),
		Found:     meta != nil,
		Metadata:  meta,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	// Cache writes are best effort; a failed write just means a re-fetch.
	_ = afero.WriteFile(c.fs, c.path(key), data, 0o644)
}
