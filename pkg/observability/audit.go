package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// AuditHooks logs sequence endings and failed external calls.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSequenceEnd: func(ctx context.Context, ev *domain.SequenceEvent) {
			logger.InfoContext(ctx, "sequence ended",
				"session", ev.Key.String(),
				"sequence", ev.Sequence,
				"reason", ev.Reason,
			)
		},
		OnCall: func(ctx context.Context, ev *domain.CallEvent) {
			if ev.Err != nil {
				logger.WarnContext(ctx, "external call failed",
					"operation", ev.Operation,
					"duration", ev.Duration,
					"err", ev.Err,
				)
			}
		},
	}
}
