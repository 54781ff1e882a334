package quill

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/internal/runtime"
	httpAdapter "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// Assistant is the high-level entry point for the Quill library.
// It binds a document to a transformation client and runs at most one
// transformation at a time against the document's selection.
type Assistant struct {
	orchestrator *runtime.Orchestrator
	doc          ports.Document
	client       ports.Transformer
	presenter    ports.Presenter
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	detailed     bool
	clock        func() time.Time
}

// Option defines a functional option for configuring the Assistant.
type Option func(*Assistant)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assistant) {
		a.hooks = domain.MergeHooks(a.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithPresenter sets the busy signal and notice channel.
func WithPresenter(p ports.Presenter) Option {
	return func(a *Assistant) {
		a.presenter = p
	}
}

// WithDetailedNotices makes failure notices name what went wrong.
func WithDetailedNotices(enabled bool) Option {
	return func(a *Assistant) {
		a.detailed = enabled
	}
}

// WithClock overrides the time source used for events.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.clock = now
	}
}

// New creates an Assistant for doc that sends transformations to client.
func New(doc ports.Document, client ports.Transformer, opts ...Option) *Assistant {
	a := &Assistant{
		doc:    doc,
		client: client,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	a.orchestrator = runtime.NewOrchestrator(doc, client,
		runtime.WithPresenter(a.presenter),
		runtime.WithLifecycleHooks(a.hooks),
		runtime.WithLogger(a.logger),
		runtime.WithDetailedNotices(a.detailed),
		runtime.WithClock(a.clock),
	)
	return a
}

// Connect creates an Assistant backed by the HTTP transformation client.
// An empty endpoint selects the default local service.
func Connect(endpoint string, doc ports.Document, opts ...Option) *Assistant {
	preset := &Assistant{}
	for _, opt := range opts {
		opt(preset)
	}

	var clientOpts []httpAdapter.ClientOption
	if preset.logger != nil {
		clientOpts = append(clientOpts, httpAdapter.WithClientLogger(preset.logger))
	}
	clientOpts = append(clientOpts, httpAdapter.WithUserAgent("quill/"+trimmedVersion()))

	return New(doc, httpAdapter.NewClient(endpoint, clientOpts...), opts...)
}

// Invoke transforms the current selection and blocks until the outcome is
// applied or surfaced.
func (a *Assistant) Invoke(ctx context.Context, action domain.ActionKind) error {
	return a.orchestrator.Invoke(ctx, action)
}

// Trigger starts a transformation without blocking. The returned channel
// yields the outcome exactly once.
func (a *Assistant) Trigger(ctx context.Context, action domain.ActionKind) <-chan error {
	return a.orchestrator.Trigger(ctx, action)
}

// State returns a snapshot of the request state.
func (a *Assistant) State() domain.RequestState {
	return a.orchestrator.State()
}

// Busy reports whether a transformation is outstanding.
func (a *Assistant) Busy() bool {
	return a.orchestrator.Busy()
}

// Document returns the document the assistant edits.
func (a *Assistant) Document() ports.Document {
	return a.doc
}
