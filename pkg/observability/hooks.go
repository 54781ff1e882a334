package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/quill/pkg/domain"
)

// LoggingHooks returns hooks that log every transition and exchange.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			attrs := []any{
				"from", e.From.Phase,
				"to", e.To.Phase,
				"action", e.To.Action.String(),
			}
			if e.To.Err != nil {
				attrs = append(attrs, "err", e.To.Err)
			}
			logger.DebugContext(ctx, "state_change", attrs...)
		},
		OnSubmit: func(ctx context.Context, e *domain.TransformEvent) {
			logger.InfoContext(ctx, "transform_submit",
				"action", e.Action.String(),
				"text_len", e.TextLen,
			)
		},
		OnComplete: func(ctx context.Context, e *domain.TransformEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "transform_complete",
					"action", e.Action.String(),
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "transform_complete",
				"action", e.Action.String(),
				"result_len", e.ResultLen,
				"duration", e.Duration,
			)
		},
	}
}
