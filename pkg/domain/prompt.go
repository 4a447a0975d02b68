package domain

import (
	"context"
	"time"
)

// PromptOptions configure one use of a prompt.
type PromptOptions struct {
	Text      string   `json:"text,omitempty"`
	RetryText string   `json:"retry_text,omitempty"`
	Choices   []string `json:"choices,omitempty"`

	// Validations carries a previously collected value for the validator,
	// for instance the start instant when asking for the end.
	Validations any `json:"validations,omitempty"`
}

// PromptStatus is the state a prompt reports after looking at a turn.
type PromptStatus int

const (
	// PromptWaiting means the prompt needs (more) input.
	PromptWaiting PromptStatus = iota
	// PromptRecognized means Value holds the parsed reply.
	PromptRecognized
	// PromptInvalid means the reply was rejected and the prompt was re-rendered.
	PromptInvalid
)

func (s PromptStatus) String() string {
	switch s {
	case PromptWaiting:
		return "waiting"
	case PromptRecognized:
		return "recognized"
	case PromptInvalid:
		return "invalid"
	}
	return "unknown"
}

// PromptResult is the parse outcome of a prompt. It never outlives the turn.
type PromptResult struct {
	Status PromptStatus
	Value  any
	Reason string
}

// Waiting is the result of a prompt still expecting input.
func Waiting() PromptResult { return PromptResult{Status: PromptWaiting} }

// Recognized is the result of a successfully parsed reply.
func Recognized(v any) PromptResult { return PromptResult{Status: PromptRecognized, Value: v} }

// Invalid is the result of a rejected reply.
func Invalid(reason string) PromptResult { return PromptResult{Status: PromptInvalid, Reason: reason} }

// PromptCall is the input of a prompt invocation.
type PromptCall struct {
	Key     SessionKey
	Turn    Turn
	Options PromptOptions

	// State is persisted with the session between Begin and the final Continue.
	State map[string]string

	Now     time.Time
	Attempt int
}

// Prompt is a single-turn input request.
//
// Begin renders the question. It may resolve right away, as the token prompt
// does when a token is already available. Continue parses the next turn.
type Prompt interface {
	Begin(ctx context.Context, call *PromptCall) (PromptResult, []Message, error)
	Continue(ctx context.Context, call *PromptCall) (PromptResult, []Message, error)
}
