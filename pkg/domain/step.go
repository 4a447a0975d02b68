package domain

import (
	"context"
	"time"
)

// OutcomeKind tells the sequencer what to do after a step returns.
type OutcomeKind int

const (
	// OutcomeAwait suspends the sequence on a prompt.
	OutcomeAwait OutcomeKind = iota
	// OutcomeAdvance moves to the next step within the same turn.
	OutcomeAdvance
	// OutcomeReplace swaps the active sequence and keeps going.
	OutcomeReplace
	// OutcomeEnd terminates the sequence.
	OutcomeEnd
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAwait:
		return "await"
	case OutcomeAdvance:
		return "advance"
	case OutcomeReplace:
		return "replace"
	case OutcomeEnd:
		return "end"
	}
	return "unknown"
}

// Outcome is the result of running a step.
type Outcome struct {
	Kind OutcomeKind

	// Prompt and PromptOptions are set for OutcomeAwait.
	Prompt        string
	PromptOptions PromptOptions

	// Value is handed to the next step (OutcomeAdvance) or returned as the
	// final result of the sequence (OutcomeEnd).
	Value any

	// Sequence, SequenceOptions and Offset are set for OutcomeReplace.
	Sequence        string
	SequenceOptions map[string]any
	Offset          int
}

// Await suspends the sequence on the named prompt.
func Await(prompt string, opts PromptOptions) Outcome {
	return Outcome{Kind: OutcomeAwait, Prompt: prompt, PromptOptions: opts}
}

// Next advances to the following step, passing value as its result.
func Next(value any) Outcome {
	return Outcome{Kind: OutcomeAdvance, Value: value}
}

// Replace restarts the session on the first step of sequence.
func Replace(sequence string, options map[string]any) Outcome {
	return Outcome{Kind: OutcomeReplace, Sequence: sequence, SequenceOptions: options}
}

// ReplaceAt is Replace starting at the given step offset.
func ReplaceAt(sequence string, options map[string]any, offset int) Outcome {
	return Outcome{Kind: OutcomeReplace, Sequence: sequence, SequenceOptions: options, Offset: offset}
}

// End terminates the sequence.
func End(value any) Outcome {
	return Outcome{Kind: OutcomeEnd, Value: value}
}

// StepContext is what a step sees while it runs.
type StepContext struct {
	Key      SessionKey
	Turn     Turn
	Sequence string
	Index    int

	// Result is the value produced by the previous step or by the prompt the
	// previous step awaited. Nil on the first step of a sequence.
	Result any

	// Options are the parameters the sequence was started with.
	Options map[string]any

	// Values is the context bag. Writes persist with the session.
	Values map[string]any

	Now time.Time

	out []Message
}

// Send queues outbound messages for the current turn.
func (c *StepContext) Send(msgs ...Message) {
	c.out = append(c.out, msgs...)
}

// Messages returns the messages queued so far.
func (c *StepContext) Messages() []Message {
	return c.out
}

// Option reports whether the boolean sequence option name is set.
func (c *StepContext) Option(name string) bool {
	v, _ := c.Options[name].(bool)
	return v
}

// StepFunc is the body of a step.
//
// Collaborator failures should be handled inside the step. An error returned
// here is a fault: the sequence ends and the error reaches the host.
type StepFunc func(ctx context.Context, sc *StepContext) (Outcome, error)

// Step is one unit of flow logic. It has no identity beyond its position;
// Name only labels it in logs, metrics and diagrams.
type Step struct {
	Name string
	Run  StepFunc
}

// Sequence is a named, ordered list of steps plus the prompts they await.
// A sequence is immutable once registered.
type Sequence struct {
	Name    string
	Steps   []Step
	Prompts map[string]Prompt
}

// Filter runs ahead of every sequence on every turn. When it reports handled,
// the turn goes no further and the session is cleared.
type Filter func(ctx context.Context, turn Turn) (handled bool, msgs []Message, err error)
