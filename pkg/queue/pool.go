package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fishperson113/scholarships-routing/pkg/config"
)

// WorkerPool manages the queue workers for one process.
type WorkerPool struct {
	broker   *Broker
	config   *config.QueueConfig
	executor PipelineExecutor
	workers  []*Worker
	mu       sync.Mutex
	started  bool
	stopped  bool
}

// NewWorkerPool creates a worker pool. Workers are not running until Start.
func NewWorkerPool(broker *Broker, cfg *config.QueueConfig, executor PipelineExecutor) *WorkerPool {
	return &WorkerPool{
		broker:   broker,
		config:   cfg,
		executor: executor,
		workers:  make([]*Worker, 0, cfg.WorkerCount),
	}
}

// Start spawns the worker goroutines. Safe to call multiple times; subsequent
// calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		slog.Warn("Worker pool already started, ignoring duplicate Start call")
		return
	}
	p.started = true

	slog.Info("Starting worker pool", "worker_count", p.config.WorkerCount)
	for i := 0; i < p.config.WorkerCount; i++ {
		worker := NewWorker(fmt.Sprintf("worker-%d", i), p.broker, p.executor)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}
	slog.Info("Worker pool started")
}

// Stop signals all workers to stop and waits for them to finish their
// current tasks (graceful shutdown).
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	workers := p.workers
	p.mu.Unlock()

	slog.Info("Stopping worker pool gracefully")
	for _, worker := range workers {
		worker.Stop()
	}
	slog.Info("Worker pool stopped gracefully")
}

// Health returns the current health status of the pool. Broker errors make
// the pool unhealthy: workers cannot claim or publish without Redis.
func (p *WorkerPool) Health(ctx context.Context) *PoolHealth {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	var brokerErr string
	queueDepth, err := p.broker.QueueDepth(ctx)
	if err != nil {
		slog.Error("Failed to query queue depth for health check", "error", err)
		brokerErr = fmt.Sprintf("queue depth query failed: %v", err)
	}

	workerStats := make([]WorkerHealth, len(workers))
	activeWorkers := 0
	for i, worker := range workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	return &PoolHealth{
		IsHealthy:     len(workers) > 0 && brokerErr == "",
		BrokerError:   brokerErr,
		ActiveWorkers: activeWorkers,
		TotalWorkers:  len(workers),
		QueueDepth:    queueDepth,
		WorkerStats:   workerStats,
	}
}
