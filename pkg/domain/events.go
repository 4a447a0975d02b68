package domain

import (
	"context"
	"time"
)

// Turn results reported through LifecycleHooks.
const (
	TurnHandled     = "handled"
	TurnIgnored     = "ignored"
	TurnInterrupted = "interrupted"
	TurnFault       = "fault"
)

// TurnEvent describes a processed turn.
type TurnEvent struct {
	Key      SessionKey    `json:"key"`
	Type     TurnType      `json:"type"`
	Result   string        `json:"result"`
	Duration time.Duration `json:"duration"`
}

// StepEvent describes entry into a step.
type StepEvent struct {
	Key      SessionKey `json:"key"`
	Sequence string     `json:"sequence"`
	Step     string     `json:"step"`
	Index    int        `json:"index"`
}

// PromptEvent describes a prompt evaluation.
type PromptEvent struct {
	Key      SessionKey   `json:"key"`
	Sequence string       `json:"sequence"`
	Prompt   string       `json:"prompt"`
	Attempt  int          `json:"attempt"`
	Status   PromptStatus `json:"status"`
}

// SequenceEvent describes a sequence leaving the session.
type SequenceEvent struct {
	Key      SessionKey `json:"key"`
	Sequence string     `json:"sequence"`
	Reason   string     `json:"reason"` // end, replace, fault, interrupt
}

// CallEvent describes a call to an external collaborator.
type CallEvent struct {
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurn        func(context.Context, *TurnEvent)
	OnStepEnter   func(context.Context, *StepEvent)
	OnPrompt      func(context.Context, *PromptEvent)
	OnSequenceEnd func(context.Context, *SequenceEvent)
	OnCall        func(context.Context, *CallEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurn:        chain(h.OnTurn, other.OnTurn),
		OnStepEnter:   chain(h.OnStepEnter, other.OnStepEnter),
		OnPrompt:      chain(h.OnPrompt, other.OnPrompt),
		OnSequenceEnd: chain(h.OnSequenceEnd, other.OnSequenceEnd),
		OnCall:        chain(h.OnCall, other.OnCall),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, ev T) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

// TrackCall times fn and reports it through OnCall.
func (h LifecycleHooks) TrackCall(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if h.OnCall != nil {
		h.OnCall(ctx, &CallEvent{Operation: op, Duration: time.Since(start), Err: err})
	}
	return err
}
