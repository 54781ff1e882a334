package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/config"
	"github.com/aretw0/quill/internal/presentation/tui"
	httpAdapter "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/aretw0/quill/pkg/adapters/memory"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/observability"
)

// TransformOptions describes one transformation run against a file.
type TransformOptions struct {
	Action   string
	Path     string
	From     int
	To       int // negative means end of document
	Match    string
	Mode     string
	Endpoint string
	Write    bool
	Debug    bool

	// Output receives the rendered result, Status the notices.
	Output io.Writer
	Status io.Writer
	Render func(string) (string, error)
}

// RunTransform loads a file, selects a span and sends it to the service.
// The result is printed and, with Write set, saved back into the file.
func RunTransform(ctx context.Context, cfg *config.Config, opts TransformOptions, logger *slog.Logger) error {
	action, err := domain.ParseAction(opts.Action)
	if err != nil {
		return err
	}
	mode, err := memory.ParseInsertMode(opts.Mode)
	if err != nil {
		return err
	}

	info, err := os.Stat(opts.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.Path, err)
	}
	raw, err := os.ReadFile(opts.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.Path, err)
	}

	doc := memory.NewDocument(string(raw), memory.WithInsertMode(mode))
	defer doc.Close()

	if err := selectSpan(doc, opts); err != nil {
		return err
	}

	client := CreateClient(cfg.Client, opts.Endpoint, logger,
		httpAdapter.WithUserAgent("quill/"+strings.TrimSpace(quill.Version)),
	)

	status := opts.Status
	if status == nil {
		status = io.Discard
	}
	console := tui.NewConsole(status)

	var result string
	assistantOpts := []quill.Option{
		quill.WithLogger(logger),
		quill.WithPresenter(console),
		quill.WithDetailedNotices(cfg.Client.DetailedNotices),
		quill.WithLifecycleHooks(domain.LifecycleHooks{
			OnStateChange: func(_ context.Context, e *domain.StateEvent) {
				if e.To.Phase == domain.PhaseSucceeded {
					result = e.To.Result
				}
			},
		}),
	}
	if opts.Debug {
		assistantOpts = append(assistantOpts, quill.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}

	if err := quill.New(doc, client, assistantOpts...).Invoke(ctx, action); err != nil {
		return err
	}

	render := opts.Render
	if render == nil {
		render = tui.PlainRenderer
	}
	out, err := render(result)
	if err != nil {
		out = result
	}
	if opts.Output != nil {
		fmt.Fprintln(opts.Output, strings.TrimRight(out, "\n"))
	}

	if opts.Write {
		if err := os.WriteFile(opts.Path, []byte(doc.Text()), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.Path, err)
		}
		printSystemMessage(status, "Updated %s", opts.Path)
	}
	return nil
}

// selectSpan applies the --match or --from/--to selection. With neither the
// whole document is selected.
func selectSpan(doc *memory.Document, opts TransformOptions) error {
	if opts.Match != "" {
		return doc.SelectText(opts.Match)
	}

	end := opts.To
	if end < 0 {
		end = doc.Len()
	}
	return doc.Select(opts.From, end)
}
