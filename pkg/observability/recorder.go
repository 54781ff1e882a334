package observability

import (
	"context"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
)

// Recorder keeps the state history and fans transitions out to watchers.
// Slow watchers miss events rather than block the orchestrator.
type Recorder struct {
	mu       sync.Mutex
	history  []domain.StateEvent
	limit    int
	watchers map[chan domain.StateEvent]struct{}
}

// NewRecorder creates a recorder that keeps at most limit events (0 = unbounded).
func NewRecorder(limit int) *Recorder {
	return &Recorder{
		limit:    limit,
		watchers: make(map[chan domain.StateEvent]struct{}),
	}
}

// Hooks returns lifecycle hooks that feed the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			r.record(*e)
		},
	}
}

func (r *Recorder) record(e domain.StateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, e)
	if r.limit > 0 && len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}
	for ch := range r.watchers {
		select {
		case ch <- e:
		default:
		}
	}
}

// History returns a copy of the recorded events, oldest first.
func (r *Recorder) History() []domain.StateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StateEvent, len(r.history))
	copy(out, r.history)
	return out
}

// Phases returns the destination phase of every recorded event.
func (r *Recorder) Phases() []domain.Phase {
	history := r.History()
	out := make([]domain.Phase, len(history))
	for i, e := range history {
		out[i] = e.To.Phase
	}
	return out
}

// Watch streams transitions until ctx is done.
func (r *Recorder) Watch(ctx context.Context) <-chan domain.StateEvent {
	ch := make(chan domain.StateEvent, 16)

	r.mu.Lock()
	r.watchers[ch] = struct{}{}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.watchers, ch)
		close(ch)
		r.mu.Unlock()
	}()
	return ch
}
