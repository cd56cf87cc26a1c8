package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"cinetrail/config"
	"cinetrail/internal/errs"
	"cinetrail/services/enrich"
	"cinetrail/services/ingest"
)

// Service manages scheduled execution of the ingestion and enrichment
// pipeline stages. Each stage runs as an independent unit of work; retry
// policy lives here, not inside the stages.
type Service struct {
	configManager *config.Manager
	ingestService *ingest.Service
	enrichService *enrich.Service
	fetchers      map[config.ScheduledTaskType]ingest.Fetcher

	// Runtime state
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	loopWG  sync.WaitGroup
	taskWG  conc.WaitGroup

	// Task state tracking (in-memory, not persisted)
	taskRunning map[string]bool
	taskMu      sync.RWMutex
}

// NewService creates a new scheduler service. The fetchers map binds the
// ingestion task types to their source fetchers.
func NewService(
	configManager *config.Manager,
	ingestService *ingest.Service,
	enrichService *enrich.Service,
	rottenTomatoes ingest.Fetcher,
	mubi ingest.Fetcher,
) *Service {
	return &Service{
		configManager: configManager,
		ingestService: ingestService,
		enrichService: enrichService,
		fetchers: map[config.ScheduledTaskType]ingest.Fetcher{
			config.ScheduledTaskTypeIngestRottenTomatoes: rottenTomatoes,
			config.ScheduledTaskTypeIngestMubi:           mubi,
		},
		taskRunning: make(map[string]bool),
	}
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.loopWG.Add(1)
	go s.schedulerLoop()

	log.Println("[scheduler] Scheduler service started")
	return nil
}

// Stop gracefully stops the scheduler
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	// Wait for the loop and in-flight tasks to complete with timeout
	done := make(chan struct{})
	go func() {
		s.loopWG.Wait()
		s.taskWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] Scheduler service stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] Scheduler service stopped (timeout)")
	}

	s.running = false
	return nil
}

// schedulerLoop is the main background loop that checks for tasks to run
func (s *Service) schedulerLoop() {
	defer s.loopWG.Done()

	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return
	}

	checkInterval := time.Duration(settings.ScheduledTasks.CheckIntervalSeconds) * time.Second
	if checkInterval < time.Second {
		checkInterval = 60 * time.Second
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	// Run check immediately on start
	s.checkAndRunTasks()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunTasks()
		}
	}
}

// checkAndRunTasks checks all enabled tasks and runs those that are due
func (s *Service) checkAndRunTasks() {
	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return
	}

	for _, task := range settings.ScheduledTasks.Tasks {
		if !task.Enabled {
			continue
		}

		if s.shouldRun(task) {
			// Run task in goroutine to not block other tasks
			t := task
			s.taskWG.Go(func() {
				s.executeTask(t)
			})
		}
	}
}

// shouldRun checks if a task is due to run
func (s *Service) shouldRun(task config.ScheduledTask) bool {
	// Check if already running
	s.taskMu.RLock()
	if s.taskRunning[task.ID] {
		s.taskMu.RUnlock()
		return false
	}
	s.taskMu.RUnlock()

	// Never run before
	if task.LastRunAt == nil {
		return true
	}

	interval := s.getInterval(task.Frequency)
	return time.Since(*task.LastRunAt) >= interval
}

// getInterval returns the duration for a given frequency
func (s *Service) getInterval(freq config.ScheduledTaskFrequency) time.Duration {
	switch freq {
	case config.ScheduledTaskFrequency15Min:
		return 15 * time.Minute
	case config.ScheduledTaskFrequency30Min:
		return 30 * time.Minute
	case config.ScheduledTaskFrequencyHourly:
		return 1 * time.Hour
	case config.ScheduledTaskFrequency6Hours:
		return 6 * time.Hour
	case config.ScheduledTaskFrequency12Hours:
		return 12 * time.Hour
	case config.ScheduledTaskFrequencyDaily:
		return 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// executeTask runs a task and updates its status
func (s *Service) executeTask(task config.ScheduledTask) {
	// Mark as running
	s.taskMu.Lock()
	s.taskRunning[task.ID] = true
	s.taskMu.Unlock()

	defer func() {
		s.taskMu.Lock()
		delete(s.taskRunning, task.ID)
		s.taskMu.Unlock()
	}()

	log.Printf("[scheduler] Executing task: %s (%s)", task.Name, task.Type)

	summary, err := s.runWithRetry(task)
	s.updateTaskStatus(task.ID, err, summary)
}

// runWithRetry executes a task's stage, retrying with backoff when the
// failure is a transport error. Anything else fails the run immediately and
// waits for the next scheduled attempt.
func (s *Service) runWithRetry(task config.ScheduledTask) (string, error) {
	settings, err := s.configManager.Load()
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}

	attempts := settings.ScheduledTasks.MaxTransportRetries
	if attempts < 1 {
		attempts = 1
	}

	backoff := 5 * time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		summary, err := s.runTask(s.ctx, task)
		if err == nil {
			return summary, nil
		}
		lastErr = err

		if !errs.IsTransport(err) || attempt == attempts {
			break
		}

		log.Printf("[scheduler] Task %s hit a transport error (attempt %d/%d), retrying in %s: %v",
			task.ID, attempt, attempts, backoff, err)
		select {
		case <-s.ctx.Done():
			return "", lastErr
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return "", lastErr
}

// runTask dispatches to the stage matching the task type.
func (s *Service) runTask(ctx context.Context, task config.ScheduledTask) (string, error) {
	switch task.Type {
	case config.ScheduledTaskTypeIngestRottenTomatoes, config.ScheduledTaskTypeIngestMubi:
		fetcher, ok := s.fetchers[task.Type]
		if !ok || fetcher == nil {
			return "", fmt.Errorf("no fetcher wired for task type %s", task.Type)
		}
		summary, err := s.ingestService.Run(ctx, fetcher)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("created %d, skipped %d", summary.Created, summary.Skipped), nil

	case config.ScheduledTaskTypeEnrichTMDB:
		summary, err := s.enrichService.Run(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("enriched %d, not found %d, failed %d", summary.Enriched, summary.NotFound, summary.Failed), nil

	default:
		return "", fmt.Errorf("unknown task type: %s", task.Type)
	}
}

// updateTaskStatus updates a task's status in the settings file
func (s *Service) updateTaskStatus(taskID string, err error, summary string) {
	settings, loadErr := s.configManager.Load()
	if loadErr != nil {
		log.Printf("[scheduler] Failed to load settings to update task status: %v", loadErr)
		return
	}

	now := time.Now().UTC()
	for i := range settings.ScheduledTasks.Tasks {
		if settings.ScheduledTasks.Tasks[i].ID == taskID {
			settings.ScheduledTasks.Tasks[i].LastRunAt = &now
			settings.ScheduledTasks.Tasks[i].LastSummary = summary

			if err != nil {
				settings.ScheduledTasks.Tasks[i].LastStatus = config.ScheduledTaskStatusError
				settings.ScheduledTasks.Tasks[i].LastError = err.Error()
				log.Printf("[scheduler] Task %s failed: %v", taskID, err)
			} else {
				settings.ScheduledTasks.Tasks[i].LastStatus = config.ScheduledTaskStatusSuccess
				settings.ScheduledTasks.Tasks[i].LastError = ""
				log.Printf("[scheduler] Task %s completed: %s", taskID, summary)
			}
			break
		}
	}

	if saveErr := s.configManager.Save(settings); saveErr != nil {
		log.Printf("[scheduler] Failed to save task status: %v", saveErr)
	}
}

// RunTaskNow triggers immediate execution of a task
func (s *Service) RunTaskNow(taskID string) error {
	settings, err := s.configManager.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, task := range settings.ScheduledTasks.Tasks {
		if task.ID == taskID {
			// Check if already running
			s.taskMu.RLock()
			if s.taskRunning[taskID] {
				s.taskMu.RUnlock()
				return errors.New("task is already running")
			}
			s.taskMu.RUnlock()

			t := task
			s.taskWG.Go(func() {
				s.executeTask(t)
			})
			return nil
		}
	}

	return errors.New("task not found")
}

// GetTaskStatus returns all tasks with their current status
// Running tasks will have their status overridden to "running"
func (s *Service) GetTaskStatus() []config.ScheduledTask {
	settings, err := s.configManager.Load()
	if err != nil {
		return nil
	}

	s.taskMu.RLock()
	defer s.taskMu.RUnlock()

	tasks := make([]config.ScheduledTask, len(settings.ScheduledTasks.Tasks))
	for i, task := range settings.ScheduledTasks.Tasks {
		tasks[i] = task
		if s.taskRunning[task.ID] {
			tasks[i].LastStatus = config.ScheduledTaskStatusRunning
		}
	}

	return tasks
}

// IsTaskRunning checks if a specific task is currently running
func (s *Service) IsTaskRunning(taskID string) bool {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()
	return s.taskRunning[taskID]
}
