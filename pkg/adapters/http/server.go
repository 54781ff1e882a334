package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 1 << 20

// Service defines the transformation service consumed by the HTTP adapter.
type Service interface {
	Transform(ctx context.Context, req domain.TransformationRequest, model string) (domain.TransformationResponse, error)
	Model() string
}

// Server serves the transformation wire contract.
type Server struct {
	Service Service

	logger      *slog.Logger
	origins     []string
	maxBody     int64
	validate    bool
	metricsPath string
	metrics     http.Handler
	version     string
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxBodyBytes caps the request body size.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithRequestValidation toggles OpenAPI request validation (on by default).
func WithRequestValidation(enabled bool) ServerOption {
	return func(s *Server) {
		s.validate = enabled
	}
}

// WithVersion sets the application version reported by /info.
func WithVersion(v string) ServerOption {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithMetricsHandler mounts a metrics handler (e.g. promhttp) at path.
func WithMetricsHandler(path string, h http.Handler) ServerOption {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the transformation service.
func NewHandler(svc Service, opts ...ServerOption) (http.Handler, error) {
	s := &Server{
		Service:  svc,
		logger:   logging.NewNop(),
		origins:  []string{"*"},
		maxBody:  DefaultMaxBodyBytes,
		validate: true,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.limitBody)

	if s.validate {
		doc, err := GetSwagger()
		if err != nil {
			return nil, err
		}
		validator, err := requestValidator(doc)
		if err != nil {
			return nil, err
		}
		r.With(validator).Post("/api/ai", s.Transform)
	} else {
		r.Post("/api/ai", s.Transform)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec())
	})
	if s.metrics != nil && s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.metrics)
	}

	return s.enableCORS(r), nil
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if slices.Contains(s.origins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.origins, origin) {
		return origin
	}
	return ""
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		}
		next.ServeHTTP(w, r)
	})
}

// transformBody mirrors the request schema; pointers tell absent from empty.
type transformBody struct {
	Action string  `json:"action"`
	Text   *string `json:"text"`
	Model  *string `json:"model,omitempty"`
}

// Transform handles the POST /api/ai request.
func (s *Server) Transform(w http.ResponseWriter, r *http.Request) {
	var body transformBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("Transform: Invalid request body", "error", err)
		return
	}

	action, err := domain.ParseAction(body.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Text == nil {
		writeError(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}

	model := ""
	if body.Model != nil {
		model = strings.TrimSpace(*body.Model)
	}

	resp, err := s.Service.Transform(r.Context(), domain.TransformationRequest{Action: action, Text: *body.Text}, model)
	if err != nil {
		status := statusFor(err)
		detail := err.Error()
		if errors.Is(err, domain.ErrEmptyText) {
			detail = "Text cannot be empty"
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("Transform failed", "action", action.String(), "error", err)
		}
		writeError(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	actions := make([]string, 0, len(domain.Actions()))
	for _, a := range domain.Actions() {
		actions = append(actions, a.String())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"app":         "quill-service",
		"version":     s.version,
		"api_version": apiVersion,
		"model":       s.Service.Model(),
		"actions":     actions,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyText), errors.Is(err, domain.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
