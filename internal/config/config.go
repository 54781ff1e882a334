// Package config loads quill settings from YAML, TOML or JSON files and
// QUILL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/aretw0/quill/pkg/adapters/process"
	"github.com/aretw0/quill/pkg/service"
)

// DefaultPath is read when no configuration file is named.
const DefaultPath = "quill.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full quill configuration.
type Config struct {
	Client    ClientConfig      `mapstructure:"client"`
	Server    ServerConfig      `mapstructure:"server"`
	Generator GeneratorConfig   `mapstructure:"generator"`
	Cache     CacheConfig       `mapstructure:"cache"`
	Prompts   map[string]string `mapstructure:"prompts"`
	Log       LogConfig         `mapstructure:"log"`
}

// ClientConfig configures the Transformation Client.
type ClientConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DetailedNotices bool          `mapstructure:"detailed_notices"`
}

// ServerConfig configures the transformation service listener.
type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	MetricsPath  string   `mapstructure:"metrics_path"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	MaxBodyBytes int64    `mapstructure:"max_body_bytes"`
	Validate     bool     `mapstructure:"validate"`
}

// GeneratorConfig selects and configures the model backend.
type GeneratorConfig struct {
	Backend    string                  `mapstructure:"backend"`
	Model      string                  `mapstructure:"model"`
	APIKeyEnv  string                  `mapstructure:"api_key_env"`
	BaseURL    string                  `mapstructure:"base_url"`
	Timeout    time.Duration           `mapstructure:"timeout"`
	Commands   []process.CommandConfig `mapstructure:"commands"`
	ModelsFile string                  `mapstructure:"models_file"`
	Fallback   string                  `mapstructure:"fallback"`
}

// CacheConfig configures result memoization in the service.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Generator backends.
const (
	BackendGemini  = "gemini"
	BackendCommand = "command"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint: "http://localhost:8000/api/ai",
			Timeout:  60 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8000",
			MetricsPath:  "/metrics",
			CORSOrigins:  []string{"*"},
			MaxBodyBytes: 1 << 20,
			Validate:     true,
		},
		Generator: GeneratorConfig{
			Backend:   BackendGemini,
			Model:     service.DefaultModel,
			APIKeyEnv: "GEMINI_API_KEY",
			Timeout:   60 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     time.Hour,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "quill:result:",
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Client.Endpoint); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("client.endpoint must be an http(s) URL, got %q", c.Client.Endpoint))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client.timeout must not be negative"))
	}

	if !slices.Contains([]string{BackendGemini, BackendCommand}, c.Generator.Backend) {
		errs = append(errs, fmt.Errorf("generator.backend must be %q or %q, got %q", BackendGemini, BackendCommand, c.Generator.Backend))
	}
	if c.Generator.Backend == BackendCommand && len(c.Generator.Commands) == 0 && c.Generator.ModelsFile == "" {
		errs = append(errs, errors.New("generator.commands or generator.models_file is required for the command backend"))
	}

	if !slices.Contains([]string{CacheNone, CacheMemory, CacheRedis}, c.Cache.Backend) {
		errs = append(errs, fmt.Errorf("cache.backend must be one of none, memory, redis, got %q", c.Cache.Backend))
	}

	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}

	if _, err := service.NewPromptSet(c.Prompts); err != nil {
		errs = append(errs, fmt.Errorf("prompts: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
