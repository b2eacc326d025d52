package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// claimWindow is how long a worker's blocking pop waits before re-checking
// the stop signal. Short enough for prompt shutdown, long enough to avoid
// hammering Redis.
const claimWindow = 1 * time.Second

// Worker is a single queue worker: it claims task envelopes from the broker,
// runs the pipeline, and publishes results to the result backend.
type Worker struct {
	id       string
	broker   *Broker
	executor PipelineExecutor
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Health tracking
	mu             sync.RWMutex
	status         WorkerStatus
	currentTaskID  string
	tasksProcessed int
	lastActivity   time.Time
}

// NewWorker creates a queue worker.
func NewWorker(id string, broker *Broker, executor PipelineExecutor) *Worker {
	return &Worker{
		id:           id,
		broker:       broker,
		executor:     executor,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish its current
// task. Safe to call multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Status:         string(w.status),
		CurrentTaskID:  w.currentTaskID,
		TasksProcessed: w.tasksProcessed,
		LastActivity:   w.lastActivity,
	}
}

// run is the main worker loop.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id)
	log.Info("Worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("Worker shutting down")
			return
		case <-ctx.Done():
			log.Info("Context cancelled, worker shutting down")
			return
		default:
			if err := w.claimAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoTasksAvailable) {
					continue
				}
				log.Error("Error processing task", "error", err)
				w.sleep(time.Second) // Brief backoff on broker errors
			}
		}
	}
}

// sleep waits for the given duration or until stop is signalled.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// claimAndProcess claims one task and runs the pipeline for it. The pipeline
// never raises for ordinary upstream failures, so every claimed task ends
// with a published result unless the broker itself is unreachable.
func (w *Worker) claimAndProcess(ctx context.Context) error {
	env, err := w.broker.NextTask(ctx, claimWindow)
	if err != nil {
		return err
	}

	log := slog.With("task_id", env.TaskID, "worker_id", w.id)
	log.Info("Task claimed", "queued_for", time.Since(env.SubmittedAt).Round(time.Millisecond))

	w.setStatus(WorkerStatusWorking, env.TaskID)
	defer w.setStatus(WorkerStatusIdle, "")

	result := w.executor.Execute(ctx, env.Payload)

	// Publish with a fresh context: the worker may be stopping, but a
	// computed result must still reach the submitter.
	publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.broker.PublishResult(publishCtx, env.TaskID, result); err != nil {
		log.Error("Failed to publish task result", "error", err)
		return err
	}
	w.markProcessed()

	log.Info("Task completed", "status", result["status"])
	return nil
}

func (w *Worker) setStatus(status WorkerStatus, taskID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentTaskID = taskID
	w.lastActivity = time.Now()
}

// markProcessed counts a task only once its result reached the backend, so
// health stats never report tasks the submitter can not see.
func (w *Worker) markProcessed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasksProcessed++
}
