package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"cinetrail/config"
	"cinetrail/services/scheduler"
)

type schedulerService interface {
	GetTaskStatus() []config.ScheduledTask
	RunTaskNow(taskID string) error
}

var _ schedulerService = (*scheduler.Service)(nil)

// TasksHandler exposes scheduled task status and manual triggering.
type TasksHandler struct {
	Scheduler schedulerService
}

func NewTasksHandler(sched schedulerService) *TasksHandler {
	return &TasksHandler{Scheduler: sched}
}

// ListTasks returns all scheduled tasks with their last-run status.
func (h *TasksHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.Scheduler.GetTaskStatus()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tasks": tasks})
}

// RunTask triggers immediate execution of one task.
func (h *TasksHandler) RunTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	taskID := strings.TrimSpace(vars["taskID"])
	if taskID == "" {
		http.Error(w, "task id is required", http.StatusBadRequest)
		return
	}

	if err := h.Scheduler.RunTaskNow(taskID); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}
