package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"golang.org/x/sync/semaphore"
)

// Orchestrator owns the request state cell and runs at most one
// transformation at a time.
type Orchestrator struct {
	doc       ports.Document
	client    ports.Transformer
	presenter ports.Presenter
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	detailed  bool
	now       func() time.Time

	// inflight has weight 1. It is only ever taken with TryAcquire, so a
	// second trigger is refused instead of queued.
	inflight *semaphore.Weighted

	mu    sync.Mutex
	state domain.RequestState
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithPresenter sets the busy signal and notice channel.
func WithPresenter(p ports.Presenter) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.presenter = p
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDetailedNotices makes failure notices name the failure kind instead of
// the generic "Operation failed." message.
func WithDetailedNotices(enabled bool) Option {
	return func(o *Orchestrator) {
		o.detailed = enabled
	}
}

// WithClock overrides the time source used for event timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator creates an Orchestrator in the Idle state.
func NewOrchestrator(doc ports.Document, client ports.Transformer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		doc:       doc,
		client:    client,
		presenter: ports.NopPresenter{},
		logger:    logging.NewNop(),
		now:       time.Now,
		inflight:  semaphore.NewWeighted(1),
		state:     domain.Idle(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns a snapshot of the request state.
func (o *Orchestrator) State() domain.RequestState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a transformation is outstanding.
func (o *Orchestrator) Busy() bool {
	return o.State().Phase == domain.PhaseLoading
}

// Invoke runs one transformation of the current selection and blocks until
// the state is back to Idle.
//
// It returns domain.ErrBusy without side effects while another invocation is
// Loading, and domain.ErrNoSelection when nothing is selected. Every other
// failure has already been surfaced through the presenter when it is returned.
func (o *Orchestrator) Invoke(ctx context.Context, action domain.ActionKind) error {
	text, err := o.begin(ctx, action)
	if err != nil {
		return err
	}
	return o.complete(ctx, action, text)
}

// Trigger starts a transformation and returns a channel that resolves exactly
// once with the outcome. Validation, the concurrency guard and selection
// extraction happen before Trigger returns, so back-to-back triggers are
// refused deterministically.
func (o *Orchestrator) Trigger(ctx context.Context, action domain.ActionKind) <-chan error {
	done := make(chan error, 1)

	text, err := o.begin(ctx, action)
	if err != nil {
		done <- err
		close(done)
		return done
	}

	go func() {
		defer close(done)
		done <- o.complete(ctx, action, text)
	}()
	return done
}

// begin validates the trigger, takes the in-flight slot and moves to Loading.
func (o *Orchestrator) begin(ctx context.Context, action domain.ActionKind) (string, error) {
	if !action.Valid() {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownAction, action)
	}

	if !o.inflight.TryAcquire(1) {
		o.logger.Debug("Trigger refused while loading", "action", action.String())
		return "", domain.ErrBusy
	}

	text, ok := ExtractSelection(o.doc)
	if !ok {
		o.inflight.Release(1)
		o.logger.Info("Trigger ignored: empty selection", "action", action.String())
		o.presenter.Notify(ctx, domain.Notice{
			Level:   domain.NoticeWarn,
			Message: domain.NoticeSelectText,
			Err:     domain.ErrNoSelection,
		})
		return "", domain.ErrNoSelection
	}

	o.transition(ctx, domain.Loading(action))
	o.presenter.SetBusy(true)
	return text, nil
}

// complete performs the exchange and resolves the invocation. The in-flight
// slot is released by reset, together with the move back to Idle.
func (o *Orchestrator) complete(ctx context.Context, action domain.ActionKind, text string) error {
	req := domain.TransformationRequest{Action: action, Text: text}
	event := &domain.TransformEvent{
		Timestamp: o.now(),
		Action:    action,
		TextLen:   len(text),
	}
	if o.hooks.OnSubmit != nil {
		o.hooks.OnSubmit(ctx, event)
	}

	o.logger.Debug("Submitting transformation", "action", action.String(), "text_len", len(text))
	resp, err := o.client.Submit(ctx, req)

	event.Duration = o.now().Sub(event.Timestamp)
	event.ResultLen = len(resp.Result)
	event.Err = err
	if o.hooks.OnComplete != nil {
		o.hooks.OnComplete(ctx, event)
	}

	if err == nil && resp.Result == "" {
		err = domain.NewTransformError(domain.KindEmptyResult, 0, errors.New("transformer returned no result"))
	}
	if err != nil {
		return o.fail(ctx, action, fmt.Errorf("submit %s: %w", action, err))
	}

	o.transition(ctx, domain.Succeeded(action, resp.Result))

	if err := InsertAtSelection(o.doc, resp.Result); err != nil {
		return o.fail(ctx, action, err)
	}

	o.logger.Info("Transformation applied",
		"action", action.String(),
		"text_len", len(text),
		"result_len", len(resp.Result),
		"duration", event.Duration,
	)
	o.reset(ctx)
	return nil
}

// fail records the failure, surfaces it, and returns to Idle.
func (o *Orchestrator) fail(ctx context.Context, action domain.ActionKind, err error) error {
	o.transition(ctx, domain.Failed(action, err))
	o.logger.Error("Transformation failed", "action", action.String(), "err", err)

	msg := domain.NoticeOperationFailed
	if o.detailed {
		msg = domain.DetailFor(err)
	}
	o.presenter.Notify(ctx, domain.Notice{
		Level:   domain.NoticeError,
		Message: msg,
		Err:     err,
	})

	o.reset(ctx)
	return err
}

// reset returns to Idle and frees the in-flight slot in one step, so anyone
// reacting to Idle or to SetBusy(false) may trigger again.
func (o *Orchestrator) reset(ctx context.Context) {
	o.mu.Lock()
	from := o.state
	o.state = domain.Idle()
	o.inflight.Release(1)
	o.mu.Unlock()

	o.emit(ctx, from, domain.Idle())
	o.presenter.SetBusy(false)
}

func (o *Orchestrator) transition(ctx context.Context, to domain.RequestState) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	o.emit(ctx, from, to)
}

func (o *Orchestrator) emit(ctx context.Context, from, to domain.RequestState) {
	if o.hooks.OnStateChange != nil {
		o.hooks.OnStateChange(ctx, &domain.StateEvent{
			Timestamp: o.now(),
			From:      from,
			To:        to,
		})
	}
}
