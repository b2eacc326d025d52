package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/fishperson113/scholarships-routing/pkg/queue"
)

// mapQueueError maps queue-layer errors to HTTP error responses. Only
// infrastructure failures reach this point: ordinary upstream failures travel
// inside well-formed pipeline results and never surface as Go errors.
func mapQueueError(err error) *echo.HTTPError {
	if errors.Is(err, queue.ErrResultTimeout) {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream service timed out")
	}
	if errors.Is(err, queue.ErrShuttingDown) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service is shutting down")
	}

	slog.Error("Unexpected queue error", "error", err)
	return echo.NewHTTPError(http.StatusServiceUnavailable, "task queue unavailable")
}
