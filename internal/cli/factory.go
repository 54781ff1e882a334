package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/quill/internal/config"
	"github.com/aretw0/quill/pkg/adapters/gemini"
	httpAdapter "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/aretw0/quill/pkg/adapters/memory"
	"github.com/aretw0/quill/pkg/adapters/process"
	"github.com/aretw0/quill/pkg/adapters/redis"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
)

// closer releases resources acquired by the factories.
type closer func() error

func noopCloser() error { return nil }

// createGenerator builds the configured model backend.
func createGenerator(cfg config.GeneratorConfig, logger *slog.Logger) (ports.Generator, error) {
	switch cfg.Backend {
	case config.BackendGemini:
		return gemini.New(
			gemini.WithAPIKey(os.Getenv(cfg.APIKeyEnv)),
			gemini.WithBaseURL(cfg.BaseURL),
			gemini.WithTimeout(cfg.Timeout),
			gemini.WithLogger(logger),
		)
	case config.BackendCommand:
		commands := process.Index(cfg.Commands)
		if cfg.ModelsFile != "" {
			fromFile, err := process.LoadCommands(cfg.ModelsFile)
			if err != nil {
				return nil, err
			}
			for name, c := range fromFile {
				commands[name] = c
			}
		}
		if len(commands) == 0 {
			return nil, errors.New("no model commands configured")
		}
		return process.NewRunner(
			process.WithRegistry(commands),
			process.WithFallback(cfg.Fallback),
			process.WithLogger(logger),
		), nil
	}
	return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
}

// createCache builds the configured result cache. A nil cache disables caching.
func createCache(cfg config.CacheConfig) (ports.ResultCache, closer) {
	switch cfg.Backend {
	case config.CacheMemory:
		return memory.NewCache(memory.WithTTL(cfg.TTL)), noopCloser
	case config.CacheRedis:
		c := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.TTL),
		)
		return c, c.Close
	}
	return nil, noopCloser
}

// CreateService wires the transformation service from configuration.
func CreateService(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*service.Service, func() error, error) {
	gen, err := createGenerator(cfg.Generator, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("generator: %w", err)
	}

	prompts, err := service.NewPromptSet(cfg.Prompts)
	if err != nil {
		return nil, nil, fmt.Errorf("prompts: %w", err)
	}

	opts := []service.Option{
		service.WithPrompts(prompts),
		service.WithDefaultModel(cfg.Generator.Model),
		service.WithLogger(logger),
	}
	if reg != nil {
		opts = append(opts, service.WithMetrics(service.NewMetrics(reg)))
	}

	cache, closeCache := createCache(cfg.Cache)
	if cache != nil {
		opts = append(opts, service.WithCache(cache))
	}

	return service.New(gen, opts...), closeCache, nil
}

// CreateClient builds the Transformation Client from configuration.
// A non-empty endpoint overrides the configured one.
func CreateClient(cfg config.ClientConfig, endpoint string, logger *slog.Logger, opts ...httpAdapter.ClientOption) *httpAdapter.Client {
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	base := []httpAdapter.ClientOption{
		httpAdapter.WithTimeout(cfg.Timeout),
		httpAdapter.WithClientLogger(logger),
	}
	return httpAdapter.NewClient(endpoint, append(base, opts...)...)
}
