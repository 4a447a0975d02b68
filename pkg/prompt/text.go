package prompt

import (
	"context"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// TextValidator accepts or rejects a non-empty reply.
type TextValidator func(ctx context.Context, text string) bool

// Text accepts any non-empty string.
type Text struct {
	validate TextValidator
}

// NewText creates a free text prompt. validate may be nil.
func NewText(validate TextValidator) *Text {
	return &Text{validate: validate}
}

func (p *Text) Begin(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	return domain.Waiting(), question(call.Options), nil
}

func (p *Text) Continue(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	text, ok := reply(call.Turn)
	if !ok {
		return domain.Waiting(), nil, nil
	}
	if text == "" {
		return domain.Invalid("empty reply"), retry(call.Options), nil
	}
	if p.validate != nil && !p.validate(ctx, text) {
		return domain.Invalid("rejected by validator"), retry(call.Options), nil
	}
	return domain.Recognized(text), nil, nil
}
