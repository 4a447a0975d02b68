package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/calendarbot/pkg/domain"
)

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.Debug("Turn", "session", e.Key.String(), "type", e.Type, "result", e.Result, "duration", e.Duration)
		},
		OnPrompt: func(ctx context.Context, e *domain.PromptEvent) {
			logger.Debug("Prompt", "session", e.Key.String(), "prompt", e.Prompt, "attempt", e.Attempt, "status", e.Status.String())
		},
		OnCall: func(ctx context.Context, e *domain.CallEvent) {
			logger.Debug("Call", "operation", e.Operation, "duration", e.Duration, "failed", e.Err != nil)
		},
	}
}
