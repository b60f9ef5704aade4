package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/notify"
	"github.com/agentdeck/agentdeck/pkg/query"
	"github.com/agentdeck/agentdeck/pkg/types"
)

// validate is the shared validator instance for config structs
var validate = validator.New()

// Config is Agentdeck's client configuration, loaded from a YAML file with
// defaults for everything so an empty file is valid.
type Config struct {
	// BackendURL is the HTTP base URL of the backend API.
	BackendURL string `yaml:"backend_url" validate:"required,url"`

	// StreamURL is the WebSocket URL of the event stream.
	StreamURL string `yaml:"stream_url" validate:"required,url"`

	// DataDir holds the local database. Defaults to ~/.agentdeck.
	DataDir string `yaml:"data_dir" validate:"required"`

	// RequestTimeout bounds each API request.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`

	// PollInterval is the default refetch interval for live views.
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`

	// Retry configures the list-query retry policy.
	Retry RetryConfig `yaml:"retry"`

	// ToastTypes are the notification types that raise a toast.
	ToastTypes []types.NotificationType `yaml:"toast_types" validate:"min=1,dive,oneof=email sync error success warning info"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel log.Level `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// RetryConfig mirrors the query retry policy in file form
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts" validate:"min=1"`
	BaseDelay     time.Duration `yaml:"base_delay" validate:"gt=0"`
	BackoffFactor float64       `yaml:"backoff_factor" validate:"gte=1"`
	MaxDelay      time.Duration `yaml:"max_delay" validate:"gt=0"`
}

// Policy converts the file form into the query layer's retry policy
func (r RetryConfig) Policy() query.RetryPolicy {
	return query.RetryPolicy{
		MaxAttempts:   r.MaxAttempts,
		BaseDelay:     r.BaseDelay,
		BackoffFactor: r.BackoffFactor,
		MaxDelay:      r.MaxDelay,
	}
}

// Default returns the built-in configuration
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		BackendURL:     "http://localhost:8000",
		StreamURL:      "ws://localhost:8000/ws",
		DataDir:        filepath.Join(home, ".agentdeck"),
		RequestTimeout: 15 * time.Second,
		PollInterval:   30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseDelay:     time.Second,
			BackoffFactor: 2,
			MaxDelay:      30 * time.Second,
		},
		ToastTypes: notify.DefaultToastTypes(),
		LogLevel:   log.InfoLevel,
	}
}

// Load reads path, overlays it on the defaults and validates the result.
// A missing file yields the defaults; a malformed or invalid file is an
// error, not a silent fallback.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath is where Load looks when the user gives no --config flag
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agentdeck.yaml"
	}
	return filepath.Join(home, ".agentdeck", "config.yaml")
}
