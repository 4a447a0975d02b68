package prompt

import (
	"context"
	"fmt"

	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// DateTimeValidator inspects the first recognized candidate. validations is
// PromptOptions.Validations, e.g. the start of an event when asking for its end.
type DateTimeValidator func(ctx context.Context, c domain.Candidate, validations any) bool

// DateTime resolves a natural-language date and time into a domain.Candidate.
type DateTime struct {
	recognizer ports.Recognizer
	validate   DateTimeValidator
}

// NewDateTime creates a date-time prompt. validate may be nil.
func NewDateTime(recognizer ports.Recognizer, validate DateTimeValidator) *DateTime {
	return &DateTime{recognizer: recognizer, validate: validate}
}

func (p *DateTime) Begin(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	return domain.Waiting(), question(call.Options), nil
}

func (p *DateTime) Continue(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	text, ok := reply(call.Turn)
	if !ok {
		return domain.Waiting(), nil, nil
	}
	candidates, err := p.recognizer.Recognize(ctx, text, call.Now)
	if err != nil {
		return domain.PromptResult{}, nil, fmt.Errorf("recognize %q: %w", text, err)
	}
	if len(candidates) == 0 {
		return domain.Invalid("no date recognized"), retry(call.Options), nil
	}
	first := candidates[0]
	if p.validate != nil && !p.validate(ctx, first, call.Options.Validations) {
		return domain.Invalid("rejected by validator"), retry(call.Options), nil
	}
	return domain.Recognized(first), nil, nil
}
