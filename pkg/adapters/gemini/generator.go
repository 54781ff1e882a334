// Package gemini implements ports.Generator on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/ports"
)

// DefaultBaseURL is the public Generative Language API root. The SDK appends
// the API version.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/"

// APIKeyEnv names the environment variable read when no key is configured.
const APIKeyEnv = "GEMINI_API_KEY"

// ErrMissingAPIKey is returned by New when no API key is available.
var ErrMissingAPIKey = errors.New("gemini: missing API key")

var _ ports.Generator = (*Generator)(nil)

// Generator calls models.generateContent through a genai.Client.
type Generator struct {
	client  *genai.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Generator.
type Option func(*Generator)

// WithBaseURL points the generator at a different API root.
func WithBaseURL(u string) Option {
	return func(g *Generator) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// WithAPIKey sets the API key explicitly.
func WithAPIKey(key string) Option {
	return func(g *Generator) {
		g.apiKey = key
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Generator. The key falls back to $GEMINI_API_KEY.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		baseURL: DefaultBaseURL,
		timeout: 60 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.apiKey == "" {
		g.apiKey = os.Getenv(APIKeyEnv)
	}
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := g.timeout
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: g.baseURL,
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	g.client = client
	return g, nil
}

// Generate sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.logger.Debug("Gemini error", "model", model, "code", apiErr.Code, "duration", time.Since(start))
			return "", fmt.Errorf("gemini: %s (status %d): %w", apiErr.Message, apiErr.Code, err)
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	g.logger.Debug("Gemini response", "model", model, "candidates", len(resp.Candidates), "duration", time.Since(start))

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: no candidates")
	}
	return text, nil
}
