// Package queue provides the Redis-backed task pipeline: submission, worker
// execution, and the result backend the gateway blocks on.
package queue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for queue operations.
var (
	// ErrNoTasksAvailable indicates the queue held no task within the
	// worker's blocking-pop window.
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrResultTimeout indicates the bounded wait for a task result expired.
	// The in-flight task is not cancelled; its result may still land in the
	// backend and expire there.
	ErrResultTimeout = errors.New("timed out waiting for task result")

	// ErrResultNotFound indicates no result exists for the task id, either
	// because the task never ran or because the result already expired.
	ErrResultNotFound = errors.New("task result not found")

	// ErrShuttingDown indicates the pool rejected work because shutdown has
	// begun.
	ErrShuttingDown = errors.New("queue is shutting down")
)

// TaskHandle is an opaque reference to a submitted unit of work. The gateway
// holds it only for one blocking wait; lifecycle beyond that belongs to the
// result backend's TTL.
type TaskHandle struct {
	ID string
}

// taskEnvelope is the JSON structure carried on the queue list. Everything in
// it must be transport-neutral: mappings, sequences, text, numbers, booleans.
type taskEnvelope struct {
	TaskID      string         `json:"task_id"`
	Payload     map[string]any `json:"payload"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// PipelineExecutor runs the dispatch and formatting stages for one task.
// Ordinary upstream failures must come back as a well-formed error-status
// result, never as a panic or a missing result.
type PipelineExecutor interface {
	Execute(ctx context.Context, payload map[string]any) map[string]any
}

// PoolHealth contains health information for the worker pool.
type PoolHealth struct {
	IsHealthy     bool           `json:"is_healthy"`
	BrokerError   string         `json:"broker_error,omitempty"`
	ActiveWorkers int            `json:"active_workers"`
	TotalWorkers  int            `json:"total_workers"`
	QueueDepth    int64          `json:"queue_depth"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`
}

// WorkerHealth contains health information for a single worker.
type WorkerHealth struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"` // "idle" or "working"
	CurrentTaskID  string    `json:"current_task_id,omitempty"`
	TasksProcessed int       `json:"tasks_processed"`
	LastActivity   time.Time `json:"last_activity"`
}
