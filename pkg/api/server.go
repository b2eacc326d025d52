// Package api implements the gateway's HTTP surface.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/fishperson113/scholarships-routing/pkg/config"
	"github.com/fishperson113/scholarships-routing/pkg/metrics"
	"github.com/fishperson113/scholarships-routing/pkg/queue"
)

// Server is the HTTP server for the chat gateway.
type Server struct {
	cfg        *config.Config
	broker     *queue.Broker
	workerPool *queue.WorkerPool
	metrics    *metrics.Metrics
	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates the API server and registers its routes.
// metrics may be nil (instrumentation disabled).
func NewServer(cfg *config.Config, broker *queue.Broker, pool *queue.WorkerPool, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:        cfg,
		broker:     broker,
		workerPool: pool,
		metrics:    m,
	}

	e := echo.New()
	e.Use(securityHeaders())

	e.POST("/chat/sync", s.chatSyncHandler)
	e.GET("/health", s.healthHandler)
	if m != nil {
		e.GET("/metrics", func(c *echo.Context) error {
			m.Handler().ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}

	s.echo = e
	return s
}

// Start runs the HTTP server. Blocks until the server stops; returns
// http.ErrServerClosed after a graceful Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting new requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
