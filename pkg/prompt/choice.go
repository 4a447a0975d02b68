package prompt

import (
	"context"
	"strconv"
	"strings"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// Choice accepts one of the labels in PromptOptions.Choices and resolves to
// the label as declared.
type Choice struct{}

// NewChoice creates a choice prompt.
func NewChoice() *Choice {
	return &Choice{}
}

func (p *Choice) Begin(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	return domain.Waiting(), question(call.Options), nil
}

func (p *Choice) Continue(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	text, ok := reply(call.Turn)
	if !ok {
		return domain.Waiting(), nil, nil
	}
	if label, ok := Match(call.Options.Choices, text); ok {
		return domain.Recognized(label), nil, nil
	}
	return domain.Invalid("invalid choice"), retry(call.Options), nil
}

// Match finds the choice named by input, either by label (case-insensitive)
// or by its 1-based position.
func Match(choices []string, input string) (string, bool) {
	input = strings.TrimSpace(input)
	for _, c := range choices {
		if strings.EqualFold(c, input) {
			return c, true
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1], true
	}
	return "", false
}
