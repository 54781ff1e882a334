package domain

import (
	"context"
	"time"
)

// StateEvent reports a transition of the request state cell.
type StateEvent struct {
	Timestamp time.Time
	From      RequestState
	To        RequestState
}

// TransformEvent reports a single exchange with the transformation service.
type TransformEvent struct {
	Timestamp time.Time
	Action    ActionKind
	TextLen   int
	ResultLen int
	Duration  time.Duration
	Err       error
}

// LifecycleHooks defines callbacks for orchestrator observability.
type LifecycleHooks struct {
	OnStateChange func(context.Context, *StateEvent)
	OnSubmit      func(context.Context, *TransformEvent)
	OnComplete    func(context.Context, *TransformEvent)
}

// MergeHooks chains several hook sets; each callback runs in argument order.
func MergeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range hooks {
		if h.OnStateChange != nil {
			prev := merged.OnStateChange
			merged.OnStateChange = func(ctx context.Context, e *StateEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStateChange(ctx, e)
			}
		}
		if h.OnSubmit != nil {
			prev := merged.OnSubmit
			merged.OnSubmit = func(ctx context.Context, e *TransformEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnSubmit(ctx, e)
			}
		}
		if h.OnComplete != nil {
			prev := merged.OnComplete
			merged.OnComplete = func(ctx context.Context, e *TransformEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnComplete(ctx, e)
			}
		}
	}
	return merged
}
