package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/ports"
)

// ErrNotRegistered is returned when a model has no registered command.
var ErrNotRegistered = errors.New("model command not registered")

var _ ports.Generator = (*Runner)(nil)

// Runner implements ports.Generator by executing local processes.
// Only commands on the allow-list can run; the prompt is written to stdin
// and stdout is the model output.
type Runner struct {
	registry map[string]RegisteredProcess
	fallback string
	baseDir  string
	logger   *slog.Logger
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(commands map[string]CommandConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			r.registry[name] = RegisteredProcess{Command: c.Command, Args: c.Args, Env: c.Environment}
		}
	}
}

// WithFallback routes models without their own command to the named one.
func WithFallback(name string) RunnerOption {
	return func(r *Runner) {
		r.fallback = name
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Models lists the registered model names in order.
func (r *Runner) Models() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate runs the command registered for model.
func (r *Runner) Generate(ctx context.Context, model, prompt string) (string, error) {
	proc, ok := r.registry[model]
	if !ok && r.fallback != "" {
		proc, ok = r.registry[r.fallback]
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, model)
	}

	// The prompt never becomes a command-line argument.
	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = strings.NewReader(prompt)

	env := []string{"QUILL_MODEL=" + model}
	for k, v := range proc.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("execution canceled: %w", ctxErr)
		}
		r.logger.Warn("Model command failed", "model", model, "command", proc.Command, "err", err)
		return "", fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
