package api

import (
	"github.com/fishperson113/scholarships-routing/pkg/queue"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Checks     map[string]HealthCheck `json:"checks"`
	WorkerPool *queue.PoolHealth      `json:"worker_pool,omitempty"`
}

// HealthCheck is the status of a single dependency.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
