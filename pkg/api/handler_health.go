package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/fishperson113/scholarships-routing/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health. Only the gateway's own dependencies
// (broker, worker pool) are checked; the workflow engine is deliberately
// excluded so an upstream outage does not get the gateway restarted.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	if err := s.broker.Ping(reqCtx); err != nil {
		status = healthStatusUnhealthy
		checks["broker"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		checks["broker"] = HealthCheck{Status: healthStatusHealthy}
	}

	poolHealth := s.workerPool.Health(reqCtx)
	switch {
	case poolHealth.BrokerError != "":
		// Workers can neither claim nor publish without the broker.
		status = healthStatusUnhealthy
		checks["worker_pool"] = HealthCheck{Status: healthStatusUnhealthy, Message: poolHealth.BrokerError}
	case !poolHealth.IsHealthy:
		if status == healthStatusHealthy {
			status = healthStatusDegraded
		}
		checks["worker_pool"] = HealthCheck{Status: healthStatusDegraded, Message: "no workers running"}
	default:
		checks["worker_pool"] = HealthCheck{Status: healthStatusHealthy}
	}

	if s.metrics != nil {
		s.metrics.QueueDepth.Set(float64(poolHealth.QueueDepth))
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, &HealthResponse{
		Status:     status,
		Version:    version.GitCommit,
		Checks:     checks,
		WorkerPool: poolHealth,
	})
}
