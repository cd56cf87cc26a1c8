package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server         ServerSettings         `json:"server"`
	Sources        SourcesSettings        `json:"sources"`
	TMDB           TMDBSettings           `json:"tmdb"`
	Database       DatabaseSettings       `json:"database"`
	Cache          CacheSettings          `json:"cache"`
	Log            LogConfig              `json:"log"`
	ScheduledTasks ScheduledTasksSettings `json:"scheduledTasks,omitempty"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SourcesSettings configures the upstream YouTube channels trailers are
// ingested from. Channel IDs are the RSS feed channel identifiers.
type SourcesSettings struct {
	RottenTomatoesChannelID string `json:"rottenTomatoesChannelId"`
	MubiChannelID           string `json:"mubiChannelId"`
	// MinRequestIntervalMs spaces consecutive feed fetches across sources.
	MinRequestIntervalMs int `json:"minRequestIntervalMs"`
}

type TMDBSettings struct {
	APIKey   string `json:"apiKey"`
	Language string `json:"language"`
	// MinRequestIntervalMs spaces consecutive TMDB calls.
	MinRequestIntervalMs int `json:"minRequestIntervalMs"`
}

// DatabaseSettings defines where the movie library sqlite file lives.
type DatabaseSettings struct {
	Path string `json:"path"`
}

type CacheSettings struct {
	Directory        string `json:"directory"`
	MetadataTTLHours int    `json:"metadataTtlHours"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// ScheduledTaskType defines the type of scheduled task
type ScheduledTaskType string

const (
	ScheduledTaskTypeIngestRottenTomatoes ScheduledTaskType = "ingest_rottentomatoes"
	ScheduledTaskTypeIngestMubi           ScheduledTaskType = "ingest_mubi"
	ScheduledTaskTypeEnrichTMDB           ScheduledTaskType = "enrich_tmdb"
)

// ScheduledTaskFrequency defines how often a task runs
type ScheduledTaskFrequency string

const (
	ScheduledTaskFrequency15Min   ScheduledTaskFrequency = "15min"
	ScheduledTaskFrequency30Min   ScheduledTaskFrequency = "30min"
	ScheduledTaskFrequencyHourly  ScheduledTaskFrequency = "hourly"
	ScheduledTaskFrequency6Hours  ScheduledTaskFrequency = "6hours"
	ScheduledTaskFrequency12Hours ScheduledTaskFrequency = "12hours"
	ScheduledTaskFrequencyDaily   ScheduledTaskFrequency = "daily"
)

// ScheduledTaskStatus represents the last run status
type ScheduledTaskStatus string

const (
	ScheduledTaskStatusPending ScheduledTaskStatus = "pending"
	ScheduledTaskStatusRunning ScheduledTaskStatus = "running"
	ScheduledTaskStatusSuccess ScheduledTaskStatus = "success"
	ScheduledTaskStatusError   ScheduledTaskStatus = "error"
)

// ScheduledTask represents a single scheduled task configuration
type ScheduledTask struct {
	ID          string                 `json:"id"`
	Type        ScheduledTaskType      `json:"type"`
	Name        string                 `json:"name"`
	Enabled     bool                   `json:"enabled"`
	Frequency   ScheduledTaskFrequency `json:"frequency"`
	LastRunAt   *time.Time             `json:"lastRunAt,omitempty"`
	LastStatus  ScheduledTaskStatus    `json:"lastStatus"`
	LastError   string                 `json:"lastError,omitempty"`
	LastSummary string                 `json:"lastSummary,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// ScheduledTasksSettings contains all scheduled task configurations
type ScheduledTasksSettings struct {
	Tasks                []ScheduledTask `json:"tasks"`
	CheckIntervalSeconds int             `json:"checkIntervalSeconds"` // How often scheduler checks for due tasks (default: 60)
	// MaxTransportRetries bounds in-run retries when a stage fails with a
	// transport error. Other failures wait for the next scheduled run.
	MaxTransportRetries int `json:"maxTransportRetries"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	now := time.Now().UTC()
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7878},
		Sources: SourcesSettings{
			RottenTomatoesChannelID: "UCLyYEq4ODlw3OD9qhGqwimw",
			MubiChannelID:           "UUEuIk8O5Cyzl8J_ylPFzA",
			MinRequestIntervalMs:    500,
		},
		TMDB:     TMDBSettings{APIKey: "", Language: "en", MinRequestIntervalMs: 250},
		Database: DatabaseSettings{Path: "cache/movies.db"},
		Cache:    CacheSettings{Directory: "cache", MetadataTTLHours: 24},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			Level:      "info",
			MaxSize:    50,   // 50 MB per file
			MaxBackups: 3,    // keep 3 old files
			MaxAge:     7,    // 7 days
			Compress:   true, // compress old files
		},
		ScheduledTasks: ScheduledTasksSettings{
			// Ingestion sources are staggered so the feed fetches never land
			// on YouTube at the same moment; enrichment runs last so it sees
			// whatever the ingestion passes committed.
			Tasks: []ScheduledTask{
				{ID: "ingest-rottentomatoes", Type: ScheduledTaskTypeIngestRottenTomatoes, Name: "Ingest Rotten Tomatoes trailers", Enabled: true, Frequency: ScheduledTaskFrequency12Hours, LastStatus: ScheduledTaskStatusPending, CreatedAt: now},
				{ID: "ingest-mubi", Type: ScheduledTaskTypeIngestMubi, Name: "Ingest MUBI trailers", Enabled: true, Frequency: ScheduledTaskFrequency12Hours, LastStatus: ScheduledTaskStatusPending, CreatedAt: now},
				{ID: "enrich-tmdb", Type: ScheduledTaskTypeEnrichTMDB, Name: "Enrich movies with TMDB", Enabled: true, Frequency: ScheduledTaskFrequency6Hours, LastStatus: ScheduledTaskStatusPending, CreatedAt: now},
			},
			CheckIntervalSeconds: 60,
			MaxTransportRetries:  3,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for newly introduced settings when config predates them
	defaults := DefaultSettings()
	if strings.TrimSpace(s.Sources.RottenTomatoesChannelID) == "" {
		s.Sources.RottenTomatoesChannelID = defaults.Sources.RottenTomatoesChannelID
	}
	if strings.TrimSpace(s.Sources.MubiChannelID) == "" {
		s.Sources.MubiChannelID = defaults.Sources.MubiChannelID
	}
	if s.Sources.MinRequestIntervalMs <= 0 {
		s.Sources.MinRequestIntervalMs = defaults.Sources.MinRequestIntervalMs
	}
	if strings.TrimSpace(s.TMDB.Language) == "" {
		s.TMDB.Language = defaults.TMDB.Language
	}
	if s.TMDB.MinRequestIntervalMs <= 0 {
		s.TMDB.MinRequestIntervalMs = defaults.TMDB.MinRequestIntervalMs
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = defaults.Database.Path
	}
	if strings.TrimSpace(s.Cache.Directory) == "" {
		s.Cache.Directory = defaults.Cache.Directory
	}
	if s.Cache.MetadataTTLHours <= 0 {
		s.Cache.MetadataTTLHours = defaults.Cache.MetadataTTLHours
	}
	if s.ScheduledTasks.CheckIntervalSeconds <= 0 {
		s.ScheduledTasks.CheckIntervalSeconds = defaults.ScheduledTasks.CheckIntervalSeconds
	}
	if s.ScheduledTasks.MaxTransportRetries <= 0 {
		s.ScheduledTasks.MaxTransportRetries = defaults.ScheduledTasks.MaxTransportRetries
	}
	if len(s.ScheduledTasks.Tasks) == 0 {
		s.ScheduledTasks.Tasks = defaults.ScheduledTasks.Tasks
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
