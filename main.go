package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinetrail/api"
	"cinetrail/config"
	"cinetrail/handlers"
	"cinetrail/internal/database"
	"cinetrail/services/enrich"
	"cinetrail/services/ingest"
	"cinetrail/services/library"
	"cinetrail/services/scheduler"
	"cinetrail/services/tmdb"
	"cinetrail/services/youtube"
)

func main() {
	configPath := os.Getenv("CINETRAIL_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	configManager := config.NewManager(configPath)
	if err := configManager.EnsureDir(); err != nil {
		log.Fatalf("[main] failed to create config directory: %v", err)
	}

	settings, err := configManager.Load()
	if err != nil {
		log.Fatalf("[main] failed to load settings: %v", err)
	}

	setupLogging(settings.Log)

	log.Printf("[main] starting cinetrail")

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("[main] failed to open database: %v", err)
	}
	defer db.Close()

	libraryService := library.NewService(db)

	youtubeClient := youtube.NewClient(
		time.Duration(settings.Sources.MinRequestIntervalMs)*time.Millisecond, nil)

	rtFetcher, err := youtube.NewRottenTomatoesFetcher(youtubeClient, settings.Sources.RottenTomatoesChannelID)
	if err != nil {
		log.Fatalf("[main] rotten tomatoes fetcher: %v", err)
	}
	mubiFetcher, err := youtube.NewMubiFetcher(youtubeClient, settings.Sources.MubiChannelID)
	if err != nil {
		log.Fatalf("[main] mubi fetcher: %v", err)
	}

	tmdbClient, err := tmdb.NewClient(settings.TMDB.APIKey, settings.TMDB.Language, tmdb.Options{
		CacheDir:           filepath.Join(settings.Cache.Directory, "tmdb"),
		CacheTTLHours:      settings.Cache.MetadataTTLHours,
		MinRequestInterval: time.Duration(settings.TMDB.MinRequestIntervalMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("[main] tmdb client: %v", err)
	}

	ingestService := ingest.NewService(libraryService)
	enrichService := enrich.NewService(libraryService, tmdbClient)

	schedulerService := scheduler.NewService(configManager, ingestService, enrichService, rtFetcher, mubiFetcher)
	if err := schedulerService.Start(context.Background()); err != nil {
		log.Fatalf("[main] failed to start scheduler: %v", err)
	}

	settingsHandler := handlers.NewSettingsHandler(configManager)
	moviesHandler := handlers.NewMoviesHandler(libraryService)
	tasksHandler := handlers.NewTasksHandler(schedulerService)

	router := mux.NewRouter()
	api.Register(router, settingsHandler, moviesHandler, tasksHandler)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := schedulerService.Stop(shutdownCtx); err != nil {
		log.Printf("[main] scheduler shutdown error: %v", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] server shutdown error: %v", err)
	}

	log.Printf("[main] stopped")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.File == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		log.Printf("[main] failed to create log directory, logging to stdout only: %v", err)
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}
