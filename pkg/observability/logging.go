package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event to logger: status
// changes and ticks at Debug, tick errors at Error and halts at Info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTickEnd: func(ctx context.Context, e *domain.TickEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "tick failed", "tree", e.TreeID, "round", e.Round, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "tick finished", "tree", e.TreeID, "round", e.Round,
				"status", e.Status.String(), "duration", e.Duration)
		},
		OnStatusChange: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "status change", "tree", e.TreeID, "path", e.Path,
				"from", e.Prev.String(), "to", e.Status.String())
		},
		OnHalt: func(ctx context.Context, e *domain.TickEvent) {
			logger.InfoContext(ctx, "tree halted", "tree", e.TreeID, "round", e.Round)
		},
	}
}
