package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, and validates the gateway configuration.
//
// Steps performed:
//  1. Start from built-in defaults
//  2. If the YAML file exists, expand {{.ENV_VAR}} templates and parse it
//  3. Merge the parsed values over the defaults
//  4. Apply well-known environment overrides
//  5. Validate
//
// A missing file is not an error: the gateway can run entirely from defaults
// plus environment variables.
func Initialize(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			if err := mergo.Merge(cfg, loaded, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("merge configuration: %w", err)
			}
			slog.Info("Loaded configuration", "path", path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile reads and parses one YAML config file. Returns (nil, nil) when the
// file does not exist.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("No configuration file, using defaults and environment", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("read configuration file %s: %w", path, err)
	}

	data = ExpandEnv(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %s: %w", path, err)
	}
	return &cfg, nil
}

// applyEnvOverrides maps the well-known environment variables onto the
// config. Explicit YAML values win; env fills only what is still empty.
func applyEnvOverrides(cfg *Config) {
	if cfg.Webhook.URL == "" {
		cfg.Webhook.URL = os.Getenv("N8N_WEBHOOK_URL")
	}
	if url := os.Getenv("REDIS_URL"); url != "" && cfg.Redis.URL == Default().Redis.URL {
		cfg.Redis.URL = url
	}
	if port := os.Getenv("HTTP_PORT"); port != "" && cfg.HTTP.Port == Default().HTTP.Port {
		cfg.HTTP.Port = port
	}
}
