package api

import (
	"errors"
	"time"

	"github.com/fishperson113/scholarships-routing/pkg/queue"
)

// countRequest records one finished chat request. No-op when metrics are
// disabled.
func (s *Server) countRequest(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ChatRequests.WithLabelValues(status).Inc()
	s.metrics.RequestDuration.Observe(time.Since(start).Seconds())
}

// countTimeoutOrError distinguishes gateway wait expiry from broker failure.
func (s *Server) countTimeoutOrError(err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	if errors.Is(err, queue.ErrResultTimeout) {
		s.metrics.GatewayTimeouts.Inc()
		s.countRequest("gateway_timeout", start)
		return
	}
	s.countRequest("infra_error", start)
}
