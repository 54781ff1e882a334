package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// DefaultEndpoint is where the reference service listens by default.
const DefaultEndpoint = "http://localhost:8000/api/ai"

// MaxResponseBytes caps how much of a response body the client reads.
const MaxResponseBytes = 1 << 20

// Compile-time interface check.
var _ ports.Transformer = (*Client)(nil)

// Client is the Transformation Client: one POST per Submit, no retries,
// no caching.
type Client struct {
	endpoint  string
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithClientLogger sets a structured logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Transformation Client for endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "quill",
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// wireResponse distinguishes an absent or null result from a present one.
type wireResponse struct {
	Result *string `json:"result"`
}

// errorBody is the failure shape produced by the reference service.
type errorBody struct {
	Detail string `json:"detail"`
}

// Submit sends req to the service and classifies the outcome.
func (c *Client) Submit(ctx context.Context, req domain.TransformationRequest) (domain.TransformationResponse, error) {
	if err := req.Validate(); err != nil {
		return domain.TransformationResponse{}, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.TransformationResponse{}, fmt.Errorf("%w: marshal request: %w", domain.ErrInvalidRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindTransport, 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("Transformation request failed", "endpoint", c.endpoint, "err", err)
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindTransport, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindTransport, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	c.logger.Debug("Transformation response received",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start),
	)

	if len(raw) > MaxResponseBytes {
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindProtocol, resp.StatusCode,
			fmt.Errorf("response body exceeds %d bytes", MaxResponseBytes))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindProtocol, resp.StatusCode, statusError(raw))
	}

	return decodeResponse(resp.StatusCode, raw)
}

func decodeResponse(status int, raw []byte) (domain.TransformationResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindProtocol, status,
			errors.New("response body is not a JSON object"))
	}

	var wire wireResponse
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindProtocol, status,
			fmt.Errorf("decode response: %w", err))
	}

	if wire.Result == nil || *wire.Result == "" {
		return domain.TransformationResponse{}, domain.NewTransformError(domain.KindEmptyResult, status,
			errors.New("response has no result"))
	}

	return domain.TransformationResponse{Result: *wire.Result}, nil
}

// maxErrorSnippet caps how many bytes of a non-JSON error body end up in the error.
const maxErrorSnippet = 200

// statusError extracts a useful message from a non-success body. Plain bodies
// are cut on a rune boundary.
func statusError(raw []byte) error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return errors.New(body.Detail)
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorSnippet {
		cut := maxErrorSnippet
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	if msg == "" {
		return errors.New("empty body")
	}
	return errors.New(msg)
}
