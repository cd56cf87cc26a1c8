package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"cinetrail/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	settingsHandler *handlers.SettingsHandler,
	moviesHandler *handlers.MoviesHandler,
	tasksHandler *handlers.TasksHandler,
) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)

	// Movie library (read-only projection of the store)
	apiRouter.HandleFunc("/movies", moviesHandler.ListMovies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/stats", moviesHandler.GetStats).Methods(http.MethodGet)

	// Scheduled tasks
	apiRouter.HandleFunc("/tasks", tasksHandler.ListTasks).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tasks/{taskID}/run", tasksHandler.RunTask).Methods(http.MethodPost)

	// Settings
	apiRouter.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet)
	apiRouter.HandleFunc("/settings", settingsHandler.PutSettings).Methods(http.MethodPut)

	// Health check
	apiRouter.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
}
