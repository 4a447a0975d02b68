package prompt

import (
	"context"
	"strings"

	"github.com/aretw0/calendarbot/pkg/domain"
)

var (
	yes = map[string]bool{"y": true, "yes": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true, "true": true, "1": true}
	no  = map[string]bool{"n": true, "no": true, "nope": true, "false": true, "0": true}
)

// Confirm resolves yes/no utterances to a bool.
type Confirm struct{}

// NewConfirm creates a confirmation prompt.
func NewConfirm() *Confirm {
	return &Confirm{}
}

func (p *Confirm) Begin(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	return domain.Waiting(), question(withYesNo(call.Options)), nil
}

func (p *Confirm) Continue(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	text, ok := reply(call.Turn)
	if !ok {
		return domain.Waiting(), nil, nil
	}
	if v, ok := ParseBool(text); ok {
		return domain.Recognized(v), nil, nil
	}
	return domain.Invalid("ambiguous answer"), retry(withYesNo(call.Options)), nil
}

// ParseBool reads the first word of text as a yes or a no.
func ParseBool(text string) (value, ok bool) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false, false
	}
	word := strings.TrimRight(fields[0], ".,!")
	switch {
	case yes[word]:
		return true, true
	case no[word]:
		return false, true
	}
	return false, false
}

func withYesNo(opts domain.PromptOptions) domain.PromptOptions {
	if len(opts.Choices) == 0 {
		opts.Choices = []string{"Yes", "No"}
	}
	return opts
}
