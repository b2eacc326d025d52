// Package config loads and validates gateway configuration from YAML with
// environment expansion, merged over built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the gateway process.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Webhook WebhookConfig `yaml:"webhook"`
	Gateway GatewayConfig `yaml:"gateway"`
	Redis   RedisConfig   `yaml:"redis"`
	Queue   QueueConfig   `yaml:"queue"`
}

// HTTPConfig contains inbound HTTP server settings.
type HTTPConfig struct {
	Port string `yaml:"port"`
}

// WebhookConfig describes the external workflow engine endpoint.
type WebhookConfig struct {
	// URL is the webhook address the dispatch stage POSTs to.
	URL string `yaml:"url"`

	// Timeout bounds each outbound webhook call.
	Timeout time.Duration `yaml:"timeout"`
}

// GatewayConfig controls the synchronous endpoint behavior.
type GatewayConfig struct {
	// WaitTimeout is how long POST /chat/sync blocks for the pipeline result
	// before returning 504. The in-flight task is not cancelled on expiry.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// RedisConfig describes the broker/result-backend connection.
type RedisConfig struct {
	// URL in redis://[user:pass@]host:port/db form.
	URL string `yaml:"url"`
}

// QueueConfig contains task queue and worker pool configuration.
type QueueConfig struct {
	// Name is the logical queue name; it prefixes every Redis key.
	Name string `yaml:"name"`

	// WorkerCount is the number of worker goroutines consuming the queue.
	WorkerCount int `yaml:"worker_count"`

	// ResultTTL is how long pipeline results stay retrievable in the result
	// backend before expiring.
	ResultTTL time.Duration `yaml:"result_ttl"`

	// GracefulShutdownTimeout is the max time to wait for in-flight tasks
	// to finish during shutdown.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
}

// Default returns the built-in configuration. YAML values are merged on top.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port: "8080",
		},
		Webhook: WebhookConfig{
			Timeout: 30 * time.Second,
		},
		Gateway: GatewayConfig{
			WaitTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		Queue: QueueConfig{
			Name:                    "chat",
			WorkerCount:             5,
			ResultTTL:               time.Hour,
			GracefulShutdownTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that the configuration is usable. Called once at startup;
// everything downstream assumes a validated config.
func (c *Config) Validate() error {
	if c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is required (set N8N_WEBHOOK_URL or webhook.url)")
	}
	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("webhook.timeout must be positive, got %v", c.Webhook.Timeout)
	}
	if c.Gateway.WaitTimeout <= 0 {
		return fmt.Errorf("gateway.wait_timeout must be positive, got %v", c.Gateway.WaitTimeout)
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required")
	}
	if c.Queue.Name == "" {
		return fmt.Errorf("queue.name is required")
	}
	if c.Queue.WorkerCount <= 0 {
		return fmt.Errorf("queue.worker_count must be positive, got %d", c.Queue.WorkerCount)
	}
	if c.Queue.ResultTTL <= 0 {
		return fmt.Errorf("queue.result_ttl must be positive, got %v", c.Queue.ResultTTL)
	}
	return nil
}
