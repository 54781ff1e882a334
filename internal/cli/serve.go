package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/config"
	httpAdapter "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests may take to drain.
const ShutdownTimeout = 5 * time.Second

// NewServiceHandler builds the HTTP handler for the transformation service.
// The returned cleanup releases the cache connection.
func NewServiceHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, func() error, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, cleanup, err := CreateService(cfg, logger, reg)
	if err != nil {
		return nil, nil, err
	}

	opts := []httpAdapter.ServerOption{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithAllowedOrigins(cfg.Server.CORSOrigins...),
		httpAdapter.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		httpAdapter.WithRequestValidation(cfg.Server.Validate),
		httpAdapter.WithVersion(strings.TrimSpace(quill.Version)),
	}
	if cfg.Server.MetricsPath != "" {
		opts = append(opts, httpAdapter.WithMetricsHandler(cfg.Server.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	handler, err := httpAdapter.NewHandler(svc, opts...)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	return handler, cleanup, nil
}

// RunServe listens on the configured address until ctx is done.
func RunServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}
	return Serve(ctx, ln, cfg, logger)
}

// Serve runs the transformation service on ln and shuts down gracefully
// when ctx is cancelled.
func Serve(ctx context.Context, ln net.Listener, cfg *config.Config, logger *slog.Logger) error {
	handler, cleanup, err := NewServiceHandler(cfg, logger)
	if err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("Cache close failed", "error", err)
		}
	}()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Quill service listening", "address", ln.Addr().String(), "backend", cfg.Generator.Backend, "model", cfg.Generator.Model)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		logger.Info("Shutdown signal received, shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})

	return g.Wait()
}
