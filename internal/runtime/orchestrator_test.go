package runtime_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/quill/internal/runtime"
	httpAdapter "github.com/aretw0/quill/pkg/adapters/http"
	"github.com/aretw0/quill/pkg/adapters/memory"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPresenter captures notices and busy signals.
type recordingPresenter struct {
	mu      sync.Mutex
	notices []domain.Notice
	busy    []bool
}

func (p *recordingPresenter) SetBusy(busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = append(p.busy, busy)
}

func (p *recordingPresenter) Notify(_ context.Context, n domain.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, n)
}

func (p *recordingPresenter) Notices() []domain.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Notice(nil), p.notices...)
}

// countingDocument wraps a memory document and counts insertions.
type countingDocument struct {
	*memory.Document
	inserts []string
}

func (d *countingDocument) InsertContentAtCursor(text string) error {
	d.inserts = append(d.inserts, text)
	return d.Document.InsertContentAtCursor(text)
}

func phases(events []domain.StateEvent) []domain.Phase {
	out := []domain.Phase{}
	for _, e := range events {
		out = append(out, e.To.Phase)
	}
	return out
}

type fixture struct {
	orch      *runtime.Orchestrator
	doc       *countingDocument
	presenter *recordingPresenter
	calls     *atomic.Int32
	events    *[]domain.StateEvent
}

func newFixture(t *testing.T, text string, handler http.HandlerFunc, opts ...runtime.Option) fixture {
	t.Helper()

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	doc := &countingDocument{Document: memory.NewDocument(text)}
	presenter := &recordingPresenter{}
	var mu sync.Mutex
	events := []domain.StateEvent{}

	hooks := domain.LifecycleHooks{
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, *e)
		},
	}

	opts = append([]runtime.Option{
		runtime.WithPresenter(presenter),
		runtime.WithLifecycleHooks(hooks),
	}, opts...)

	orch := runtime.NewOrchestrator(doc, httpAdapter.NewClient(ts.URL), opts...)
	return fixture{orch: orch, doc: doc, presenter: presenter, calls: &calls, events: &events}
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestScenarioA_EmptySelection(t *testing.T) {
	f := newFixture(t, "hello world", respond(http.StatusOK, `{"result":"x"}`))

	err := f.orch.Invoke(context.Background(), domain.ActionRewrite)

	assert.ErrorIs(t, err, domain.ErrNoSelection)
	assert.Equal(t, int32(0), f.calls.Load(), "no network call")
	assert.Equal(t, domain.PhaseIdle, f.orch.State().Phase)
	assert.Empty(t, *f.events, "no transition for an empty selection")
	require.Len(t, f.presenter.Notices(), 1)
	assert.Equal(t, domain.NoticeSelectText, f.presenter.Notices()[0].Message)
	assert.Equal(t, domain.NoticeWarn, f.presenter.Notices()[0].Level)
}

func TestScenarioB_Success(t *testing.T) {
	received := make(chan string, 1)
	f := newFixture(t, "teh cat sat", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		received <- string(raw)
		respond(http.StatusOK, `{"result":"The cat sat."}`)(w, r)
	})
	require.NoError(t, f.doc.Select(0, 11))

	err := f.orch.Invoke(context.Background(), domain.ActionFixGrammar)
	require.NoError(t, err)

	assert.JSONEq(t, `{"action":"grammar","text":"teh cat sat"}`, <-received)
	assert.Equal(t, []string{"The cat sat."}, f.doc.inserts, "exactly one insertion")
	assert.Equal(t, "The cat sat.", f.doc.Text())
	assert.Equal(t,
		[]domain.Phase{domain.PhaseLoading, domain.PhaseSucceeded, domain.PhaseIdle},
		phases(*f.events))
	assert.Equal(t, "The cat sat.", (*f.events)[1].To.Result)
	assert.Equal(t, domain.PhaseIdle, f.orch.State().Phase)
	assert.Empty(t, f.presenter.Notices())
	assert.Equal(t, []bool{true, false}, f.presenter.busy)
}

func TestScenarioC_ServerError(t *testing.T) {
	f := newFixture(t, "hello world", respond(http.StatusInternalServerError, `{"detail":"boom"}`))
	require.NoError(t, f.doc.Select(0, 11))

	err := f.orch.Invoke(context.Background(), domain.ActionSummarize)

	assert.ErrorIs(t, err, domain.ErrProtocol)
	assert.Equal(t, domain.PhaseIdle, f.orch.State().Phase)
	assert.Empty(t, f.doc.inserts, "no document mutation")
	assert.Equal(t, "hello world", f.doc.Text())
	require.Len(t, f.presenter.Notices(), 1)
	assert.Equal(t, domain.NoticeOperationFailed, f.presenter.Notices()[0].Message)
	assert.Equal(t,
		[]domain.Phase{domain.PhaseLoading, domain.PhaseFailed, domain.PhaseIdle},
		phases(*f.events))
}

func TestScenarioD_EmptyResult(t *testing.T) {
	f := newFixture(t, "hello", respond(http.StatusOK, `{}`))
	require.NoError(t, f.doc.Select(0, 5))

	err := f.orch.Invoke(context.Background(), domain.ActionRewrite)

	assert.ErrorIs(t, err, domain.ErrEmptyResult)
	var te *domain.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.KindEmptyResult, te.Kind)

	assert.Empty(t, f.doc.inserts)
	require.Len(t, f.presenter.Notices(), 1)
	assert.Equal(t, domain.NoticeError, f.presenter.Notices()[0].Level)
	assert.Equal(t, domain.PhaseIdle, f.orch.State().Phase)
}

func TestScenarioE_BackToBack(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, "hello", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		respond(http.StatusOK, `{"result":"Hello."}`)(w, r)
	})
	require.NoError(t, f.doc.Select(0, 5))
	ctx := context.Background()

	first := f.orch.Trigger(ctx, domain.ActionRewrite)
	// The guard is taken before Trigger returns.
	assert.True(t, f.orch.Busy())

	second := f.orch.Trigger(ctx, domain.ActionSummarize)
	assert.ErrorIs(t, <-second, domain.ErrBusy)
	assert.ErrorIs(t, f.orch.Invoke(ctx, domain.ActionFixGrammar), domain.ErrBusy)

	<-entered
	close(release)
	require.NoError(t, <-first)

	_, open := <-first
	assert.False(t, open, "the outcome channel resolves exactly once")
	assert.Equal(t, int32(1), f.calls.Load(), "exactly one network call")
	assert.Equal(t, []string{"Hello."}, f.doc.inserts)
	assert.Empty(t, f.presenter.Notices(), "refused triggers are silent")
	assert.False(t, f.orch.Busy())
}

func TestOrchestrator_ConcurrentInvokes(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, "hello", func(w http.ResponseWriter, r *http.Request) {
		<-release
		respond(http.StatusOK, `{"result":"Hello."}`)(w, r)
	})
	require.NoError(t, f.doc.Select(0, 5))

	first := f.orch.Trigger(context.Background(), domain.ActionRewrite)

	var wg sync.WaitGroup
	var busy atomic.Int32
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(f.orch.Invoke(context.Background(), domain.ActionRewrite), domain.ErrBusy) {
				busy.Add(1)
			}
		}()
	}
	wg.Wait()
	close(release)
	require.NoError(t, <-first)

	assert.Equal(t, int32(20), busy.Load())
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestOrchestrator_UsableAfterFailure(t *testing.T) {
	var n atomic.Int32
	f := newFixture(t, "hello", func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			respond(http.StatusBadGateway, `{"detail":"upstream"}`)(w, r)
			return
		}
		respond(http.StatusOK, `{"result":"Hello."}`)(w, r)
	})
	ctx := context.Background()

	require.NoError(t, f.doc.Select(0, 5))
	assert.ErrorIs(t, f.orch.Invoke(ctx, domain.ActionRewrite), domain.ErrProtocol)

	require.NoError(t, f.doc.Select(0, 5))
	require.NoError(t, f.orch.Invoke(ctx, domain.ActionRewrite), "no automatic retry, but the next trigger works")
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, "Hello.", f.doc.Text())
}

func TestOrchestrator_MutationFailure(t *testing.T) {
	f := newFixture(t, "hello", respond(http.StatusOK, `{"result":"Hello."}`))
	require.NoError(t, f.doc.Select(0, 5))
	require.NoError(t, f.doc.Close())

	err := f.orch.Invoke(context.Background(), domain.ActionRewrite)

	assert.ErrorIs(t, err, domain.ErrDocumentMutation)
	assert.ErrorIs(t, err, memory.ErrDisposed)
	assert.Equal(t, domain.PhaseIdle, f.orch.State().Phase)
	assert.Equal(t,
		[]domain.Phase{domain.PhaseLoading, domain.PhaseSucceeded, domain.PhaseFailed, domain.PhaseIdle},
		phases(*f.events))
	require.Len(t, f.presenter.Notices(), 1)
}

func TestOrchestrator_DetailedNotices(t *testing.T) {
	f := newFixture(t, "hello", respond(http.StatusOK, `{"result":null}`), runtime.WithDetailedNotices(true))
	require.NoError(t, f.doc.Select(0, 5))

	_ = f.orch.Invoke(context.Background(), domain.ActionRewrite)

	require.Len(t, f.presenter.Notices(), 1)
	assert.Equal(t, domain.NoticeNoResult, f.presenter.Notices()[0].Message)
}

func TestOrchestrator_UnknownAction(t *testing.T) {
	f := newFixture(t, "hello", respond(http.StatusOK, `{"result":"x"}`))
	require.NoError(t, f.doc.Select(0, 5))

	err := f.orch.Invoke(context.Background(), domain.ActionKind(99))
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
	assert.Equal(t, int32(0), f.calls.Load())
	assert.Empty(t, *f.events)

	assert.ErrorIs(t, <-f.orch.Trigger(context.Background(), domain.ActionUnknown), domain.ErrUnknownAction)
}

func TestOrchestrator_TransformHooks(t *testing.T) {
	clock := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	var submitted, completed []domain.TransformEvent

	f := newFixture(t, "hello world", respond(http.StatusOK, `{"result":"Hi."}`),
		runtime.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnSubmit:   func(_ context.Context, e *domain.TransformEvent) { submitted = append(submitted, *e) },
			OnComplete: func(_ context.Context, e *domain.TransformEvent) { completed = append(completed, *e) },
		}),
	)
	require.NoError(t, f.doc.Select(0, 11))
	require.NoError(t, f.orch.Invoke(context.Background(), domain.ActionSummarize))

	require.Len(t, submitted, 1)
	require.Len(t, completed, 1)
	assert.Equal(t, domain.ActionSummarize, completed[0].Action)
	assert.Equal(t, 11, completed[0].TextLen)
	assert.Equal(t, 3, completed[0].ResultLen)
	assert.Equal(t, time.Second, completed[0].Duration)
	assert.NoError(t, completed[0].Err)
}

// retriggerPresenter invokes again the first time the busy signal clears.
type retriggerPresenter struct {
	orch  *runtime.Orchestrator
	doc   *memory.Document
	fired bool
	err   error
}

func (p *retriggerPresenter) SetBusy(busy bool) {
	if busy || p.fired {
		return
	}
	p.fired = true
	if err := p.doc.Select(0, p.doc.Len()); err != nil {
		p.err = err
		return
	}
	p.err = p.orch.Invoke(context.Background(), domain.ActionSummarize)
}

func (p *retriggerPresenter) Notify(context.Context, domain.Notice) {}

func TestOrchestrator_TriggerWhenBusyClears(t *testing.T) {
	var calls atomic.Int32
	client := ports.TransformerFunc(func(ctx context.Context, req domain.TransformationRequest) (domain.TransformationResponse, error) {
		calls.Add(1)
		return domain.TransformationResponse{Result: "done"}, nil
	})

	doc := memory.NewDocument("hello")
	presenter := &retriggerPresenter{doc: doc}
	orch := runtime.NewOrchestrator(doc, client, runtime.WithPresenter(presenter))
	presenter.orch = orch

	require.NoError(t, doc.Select(0, 5))
	require.NoError(t, orch.Invoke(context.Background(), domain.ActionRewrite))

	assert.True(t, presenter.fired)
	assert.NoError(t, presenter.err, "a trigger after SetBusy(false) must be accepted")
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, domain.PhaseIdle, orch.State().Phase)
	assert.False(t, orch.Busy())
}

func TestOrchestrator_TriggerFromIdleHook(t *testing.T) {
	client := ports.TransformerFunc(func(ctx context.Context, req domain.TransformationRequest) (domain.TransformationResponse, error) {
		return domain.TransformationResponse{Result: "done"}, nil
	})

	doc := memory.NewDocument("hello")
	var orch *runtime.Orchestrator
	var retried bool
	var retryErr error
	hooks := domain.LifecycleHooks{
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			if e.To.Phase != domain.PhaseIdle || retried {
				return
			}
			retried = true
			_ = doc.Select(0, doc.Len())
			retryErr = orch.Invoke(ctx, domain.ActionRewrite)
		},
	}
	orch = runtime.NewOrchestrator(doc, client, runtime.WithLifecycleHooks(hooks))

	require.NoError(t, doc.Select(0, 5))
	require.NoError(t, orch.Invoke(context.Background(), domain.ActionRewrite))
	assert.True(t, retried)
	assert.NoError(t, retryErr)
}

func TestOrchestrator_EmptyResultFromTransformer(t *testing.T) {
	client := ports.TransformerFunc(func(ctx context.Context, req domain.TransformationRequest) (domain.TransformationResponse, error) {
		return domain.TransformationResponse{}, nil
	})

	doc := memory.NewDocument("hello")
	presenter := &recordingPresenter{}
	var events []domain.StateEvent
	orch := runtime.NewOrchestrator(doc, client,
		runtime.WithPresenter(presenter),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnStateChange: func(_ context.Context, e *domain.StateEvent) {
				events = append(events, *e)
			},
		}),
	)
	require.NoError(t, doc.Select(0, 5))

	err := orch.Invoke(context.Background(), domain.ActionRewrite)

	assert.ErrorIs(t, err, domain.ErrEmptyResult)
	assert.Equal(t, "hello", doc.Text(), "selection must survive an empty result")
	assert.Equal(t,
		[]domain.Phase{domain.PhaseLoading, domain.PhaseFailed, domain.PhaseIdle},
		phases(events))
	require.Len(t, presenter.Notices(), 1)
	assert.Equal(t, domain.NoticeError, presenter.Notices()[0].Level)
}
