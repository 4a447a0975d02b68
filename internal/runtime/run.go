package runtime

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// Run processes exactly one inbound turn for s and returns the outbound
// messages. s is mutated in place; the caller persists it afterwards, also
// when an error is returned.
//
// Steps chain within the turn (a trampoline, never recursion) until one
// suspends on a prompt or the sequence ends.
func (e *Engine) Run(ctx context.Context, s *domain.Session, turn domain.Turn) (out []domain.Message, err error) {
	began := time.Now()
	result := domain.TurnHandled
	defer func() {
		if err != nil {
			result = domain.TurnFault
		}
		if e.hooks.OnTurn != nil {
			e.hooks.OnTurn(ctx, &domain.TurnEvent{Key: s.Key, Type: turn.Type, Result: result, Duration: time.Since(began)})
		}
	}()

	e.logger.Debug("turn received", "session", s.Key.String(), "type", turn.Type, "sequence", s.Sequence, "step", s.Step)

	for _, filter := range e.filters {
		handled, msgs, err := filter(ctx, turn)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		if handled {
			e.logger.Info("turn interrupted", "session", s.Key.String(), "sequence", s.Sequence)
			if s.Active() {
				e.emitSequenceEnd(ctx, s, "interrupt")
			}
			s.Reset()
			s.Turns++
			result = domain.TurnInterrupted
			return msgs, nil
		}
	}
	s.Turns++

	if !s.Active() {
		if !turn.IsMessage() {
			result = domain.TurnIgnored
			return nil, nil
		}
		s.Start(e.entry, maps.Clone(e.entryOptions), 0)
		return e.drive(ctx, s, turn, nil, nil)
	}

	seq, ok := e.sequences[s.Sequence]
	if !ok || s.Step < 0 || s.Step >= len(seq.Steps) {
		name := s.Sequence
		s.Reset()
		return nil, fmt.Errorf("%w: %q at step %d", domain.ErrUnknownSequence, name, s.Step)
	}

	if s.Pending == nil {
		return e.drive(ctx, s, turn, nil, nil)
	}
	return e.resume(ctx, s, seq, turn)
}

// resume hands the turn to the prompt the session is suspended on.
func (e *Engine) resume(ctx context.Context, s *domain.Session, seq domain.Sequence, turn domain.Turn) ([]domain.Message, error) {
	pending := s.Pending
	step := seq.Steps[s.Step]
	p, ok := seq.Prompts[pending.Prompt]
	if !ok {
		return nil, e.fault(ctx, s, step, fmt.Errorf("%w: %q", domain.ErrUnknownPrompt, pending.Prompt))
	}
	if pending.State == nil {
		pending.State = make(map[string]string)
	}

	call := &domain.PromptCall{
		Key:     s.Key,
		Turn:    turn,
		Options: pending.Options,
		State:   pending.State,
		Now:     e.now(),
		Attempt: pending.Attempts,
	}
	res, msgs, err := p.Continue(ctx, call)
	if err != nil {
		return msgs, e.fault(ctx, s, step, err)
	}
	e.emitPrompt(ctx, s, pending.Prompt, pending.Attempts, res.Status)

	switch res.Status {
	case domain.PromptRecognized:
		s.Pending = nil
		s.Step++
		return e.drive(ctx, s, turn, res.Value, msgs)
	case domain.PromptInvalid:
		pending.Attempts++
		e.logger.Debug("prompt retry",
			"session", s.Key.String(),
			"prompt", pending.Prompt,
			"attempt", pending.Attempts,
			"reason", res.Reason,
		)
	}
	return msgs, nil
}

// drive runs steps starting at s.Step until one awaits input or the sequence ends.
func (e *Engine) drive(ctx context.Context, s *domain.Session, turn domain.Turn, result any, out []domain.Message) ([]domain.Message, error) {
	for chain := 0; ; chain++ {
		seq, ok := e.sequences[s.Sequence]
		if !ok {
			name := s.Sequence
			s.Reset()
			return out, fmt.Errorf("%w: %q", domain.ErrUnknownSequence, name)
		}
		if s.Step >= len(seq.Steps) {
			e.endSequence(ctx, s)
			return out, nil
		}
		step := seq.Steps[s.Step]
		if chain >= e.maxChain {
			return out, e.fault(ctx, s, step, domain.ErrRunaway)
		}

		e.emitStepEnter(ctx, s, step)
		sc := &domain.StepContext{
			Key:      s.Key,
			Turn:     turn,
			Sequence: s.Sequence,
			Index:    s.Step,
			Result:   result,
			Options:  s.Options,
			Values:   s.Values,
			Now:      e.now(),
		}
		outcome, err := step.Run(ctx, sc)
		out = append(out, sc.Messages()...)
		if err != nil {
			return out, e.fault(ctx, s, step, err)
		}

		switch outcome.Kind {
		case domain.OutcomeAdvance:
			s.Step++
			result = outcome.Value

		case domain.OutcomeAwait:
			p, ok := seq.Prompts[outcome.Prompt]
			if !ok {
				return out, e.fault(ctx, s, step, fmt.Errorf("%w: %q", domain.ErrUnknownPrompt, outcome.Prompt))
			}
			call := &domain.PromptCall{
				Key:     s.Key,
				Turn:    turn,
				Options: outcome.PromptOptions,
				State:   make(map[string]string),
				Now:     sc.Now,
			}
			res, msgs, err := p.Begin(ctx, call)
			out = append(out, msgs...)
			if err != nil {
				return out, e.fault(ctx, s, step, err)
			}
			e.emitPrompt(ctx, s, outcome.Prompt, 0, res.Status)
			if res.Status == domain.PromptRecognized {
				s.Step++
				result = res.Value
				continue
			}
			s.Pending = &domain.PendingPrompt{
				Prompt:  outcome.Prompt,
				Options: outcome.PromptOptions,
				State:   call.State,
			}
			return out, nil

		case domain.OutcomeReplace:
			next, ok := e.sequences[outcome.Sequence]
			if !ok {
				return out, e.fault(ctx, s, step, fmt.Errorf("%w: %q", domain.ErrUnknownSequence, outcome.Sequence))
			}
			if outcome.Offset < 0 || outcome.Offset >= len(next.Steps) {
				return out, e.fault(ctx, s, step, fmt.Errorf("offset %d out of range for %q", outcome.Offset, outcome.Sequence))
			}
			e.emitSequenceEnd(ctx, s, "replace")
			s.Start(outcome.Sequence, outcome.SequenceOptions, outcome.Offset)
			result = nil

		case domain.OutcomeEnd:
			e.endSequence(ctx, s)
			return out, nil

		default:
			return out, e.fault(ctx, s, step, fmt.Errorf("unknown outcome %v", outcome.Kind))
		}
	}
}

func (e *Engine) endSequence(ctx context.Context, s *domain.Session) {
	e.emitSequenceEnd(ctx, s, "end")
	s.Reset()
}

// fault ends the sequence and wraps err with its position.
func (e *Engine) fault(ctx context.Context, s *domain.Session, step domain.Step, err error) error {
	stepErr := &domain.StepError{Sequence: s.Sequence, Step: step.Name, Index: s.Step, Err: err}
	e.logger.Error("step failed",
		"session", s.Key.String(),
		"sequence", s.Sequence,
		"step", step.Name,
		"err", err,
	)
	e.emitSequenceEnd(ctx, s, "fault")
	s.Reset()
	return stepErr
}
