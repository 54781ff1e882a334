package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// DefaultModel is used when neither the request nor the configuration names one.
const DefaultModel = "gemini-2.5-flash-lite"

// ErrGeneration is returned when the generator fails or produces nothing.
var ErrGeneration = errors.New("generation failed")

// Service is the reference transformation service.
type Service struct {
	generator ports.Generator
	cache     ports.ResultCache
	prompts   PromptSet
	model     string
	metrics   *Metrics
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithCache enables result memoization.
func WithCache(cache ports.ResultCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithPrompts replaces the prompt templates.
func WithPrompts(prompts PromptSet) Option {
	return func(s *Service) {
		if prompts != nil {
			s.prompts = prompts
		}
	}
}

// WithDefaultModel sets the model used when a request does not name one.
func WithDefaultModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service backed by generator.
func New(generator ports.Generator, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		prompts:   PromptSet(DefaultPrompts),
		model:     DefaultModel,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the default model name.
func (s *Service) Model() string {
	return s.model
}

// Transform runs one transformation. The text is trimmed before prompting and
// an all-whitespace text is rejected with domain.ErrEmptyText.
func (s *Service) Transform(ctx context.Context, req domain.TransformationRequest, model string) (domain.TransformationResponse, error) {
	if !req.Action.Valid() {
		s.metrics.observe("unknown", "rejected")
		return domain.TransformationResponse{}, fmt.Errorf("%w: %s", domain.ErrUnknownAction, req.Action)
	}
	action := req.Action.String()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		s.metrics.observe(action, "rejected")
		return domain.TransformationResponse{}, domain.ErrEmptyText
	}
	s.metrics.observeInput(len(text))

	if model == "" {
		model = s.model
	}

	prompt, err := s.prompts.Build(req.Action, text)
	if err != nil {
		s.metrics.observe(action, "rejected")
		return domain.TransformationResponse{}, err
	}

	key := CacheKey(model, req.Action, text)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Serving cached result", "action", action, "model", model)
			s.metrics.cacheHit()
			s.metrics.observe(action, "ok")
			return domain.TransformationResponse{Result: cached}, nil
		} else if !errors.Is(err, ports.ErrCacheMiss) {
			s.logger.Warn("Cache lookup failed", "err", err)
		}
	}

	start := time.Now()
	out, err := s.generator.Generate(ctx, model, prompt)
	s.metrics.observeGeneration(action, model, time.Since(start))
	if err != nil {
		s.metrics.observe(action, "error")
		return domain.TransformationResponse{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	result, err := SanitizeOutput(out)
	if err != nil {
		s.metrics.observe(action, "error")
		return domain.TransformationResponse{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	result = strings.TrimSpace(result)
	if result == "" {
		s.metrics.observe(action, "error")
		return domain.TransformationResponse{}, fmt.Errorf("%w: model returned no text", ErrGeneration)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.logger.Warn("Cache store failed", "err", err)
		}
	}

	s.logger.Info("Transformation generated",
		"action", action,
		"model", model,
		"text_len", len(text),
		"result_len", len(result),
		"duration", time.Since(start),
	)
	s.metrics.observe(action, "ok")
	return domain.TransformationResponse{Result: result}, nil
}

// CacheKey derives a stable key from the model, action and trimmed text.
func CacheKey(model string, action domain.ActionKind, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(action.String()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
