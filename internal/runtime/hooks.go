package runtime

import (
	"context"

	"github.com/aretw0/calendarbot/pkg/domain"
)

func (e *Engine) emitStepEnter(ctx context.Context, s *domain.Session, step domain.Step) {
	e.logger.Debug("step entered", "session", s.Key.String(), "sequence", s.Sequence, "step", step.Name, "index", s.Step)
	if e.hooks.OnStepEnter == nil {
		return
	}
	e.hooks.OnStepEnter(ctx, &domain.StepEvent{
		Key:      s.Key,
		Sequence: s.Sequence,
		Step:     step.Name,
		Index:    s.Step,
	})
}

func (e *Engine) emitPrompt(ctx context.Context, s *domain.Session, prompt string, attempt int, status domain.PromptStatus) {
	if e.hooks.OnPrompt == nil {
		return
	}
	e.hooks.OnPrompt(ctx, &domain.PromptEvent{
		Key:      s.Key,
		Sequence: s.Sequence,
		Prompt:   prompt,
		Attempt:  attempt,
		Status:   status,
	})
}

func (e *Engine) emitSequenceEnd(ctx context.Context, s *domain.Session, reason string) {
	if e.hooks.OnSequenceEnd == nil {
		return
	}
	e.hooks.OnSequenceEnd(ctx, &domain.SequenceEvent{
		Key:      s.Key,
		Sequence: s.Sequence,
		Reason:   reason,
	})
}
