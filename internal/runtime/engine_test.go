package runtime_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/calendarbot/internal/runtime"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = domain.SessionKey{ConversationID: "conv", UserID: "user"}

func msg(text string) domain.Turn {
	return domain.NewMessageTurn(key, text)
}

func texts(msgs []domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func ask(name, text string) domain.Step {
	return domain.Step{Name: name, Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
		return domain.Await("text", domain.PromptOptions{Text: text}), nil
	}}
}

func store(key string, next domain.Step) domain.Step {
	return domain.Step{Name: "store-" + key, Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
		sc.Values[key] = sc.Result
		return next.Run(ctx, sc)
	}}
}

// survey asks three questions and echoes the answers.
func survey() domain.Sequence {
	return domain.Sequence{
		Name: "survey",
		Steps: []domain.Step{
			ask("AskA", "a?"),
			store("a", ask("AskB", "b?")),
			store("b", ask("AskC", "c?")),
			{Name: "Finish", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				sc.Send(domain.TextMessage(sc.Values["a"].(string) + sc.Values["b"].(string) + sc.Result.(string)))
				return domain.End(nil), nil
			}},
		},
		Prompts: map[string]domain.Prompt{"text": prompt.NewText(nil)},
	}
}

func newEngine(t *testing.T, seqs []domain.Sequence, opts ...runtime.Option) *runtime.Engine {
	t.Helper()
	e, err := runtime.NewEngine(seqs, opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_Waterfall(t *testing.T) {
	e := newEngine(t, []domain.Sequence{survey()})
	s := domain.NewSession(key)
	ctx := context.Background()

	out, err := e.Run(ctx, s, msg("hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a?"}, texts(out))
	assert.Equal(t, "survey", s.Sequence)
	assert.Equal(t, 0, s.Step)
	require.NotNil(t, s.Pending)

	out, err = e.Run(ctx, s, msg("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b?"}, texts(out))
	assert.Equal(t, 1, s.Step)

	out, err = e.Run(ctx, s, msg("2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c?"}, texts(out))

	out, err = e.Run(ctx, s, msg("3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"123"}, texts(out))

	assert.False(t, s.Active(), "sequence end leaves the session inactive")
	assert.Zero(t, s.Step)
	assert.Nil(t, s.Pending)
	assert.Empty(t, s.Values)
	assert.Equal(t, 4, s.Turns)
}

func TestEngine_RetryIsIdempotent(t *testing.T) {
	seq := domain.Sequence{
		Name: "pick",
		Steps: []domain.Step{
			{Name: "Ask", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				return domain.Await("choice", domain.PromptOptions{Text: "Pick one", Choices: []string{"A", "B"}}), nil
			}},
			{Name: "Done", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				return domain.End(sc.Result), nil
			}},
		},
		Prompts: map[string]domain.Prompt{"choice": prompt.NewChoice()},
	}
	e := newEngine(t, []domain.Sequence{seq})
	s := domain.NewSession(key)
	ctx := context.Background()

	_, err := e.Run(ctx, s, msg("start"))
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		out, err := e.Run(ctx, s, msg("Z"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Pick one"}, texts(out))
		assert.Equal(t, 0, s.Step)
		assert.Equal(t, i, s.Pending.Attempts)
	}

	out, err := e.Run(ctx, s, msg("b"))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, s.Active())
}

func TestEngine_ReplaceWithSkipOption(t *testing.T) {
	visits := 0
	seq := domain.Sequence{
		Name: "loop",
		Steps: []domain.Step{
			{Name: "Login", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				if sc.Option("skip") {
					return domain.Next(nil), nil
				}
				return domain.Await("text", domain.PromptOptions{Text: "first?"}), nil
			}},
			{Name: "Choice", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				visits++
				return domain.Await("text", domain.PromptOptions{Text: "second?"}), nil
			}},
			{Name: "Loop", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				sc.Send(domain.TextMessage("got " + sc.Result.(string)))
				return domain.Replace("loop", map[string]any{"skip": true}), nil
			}},
		},
		Prompts: map[string]domain.Prompt{"text": prompt.NewText(nil)},
	}
	e := newEngine(t, []domain.Sequence{seq})
	s := domain.NewSession(key)
	ctx := context.Background()

	out, _ := e.Run(ctx, s, msg("hi"))
	assert.Equal(t, []string{"first?"}, texts(out))
	out, _ = e.Run(ctx, s, msg("x"))
	assert.Equal(t, []string{"second?"}, texts(out))

	// The re-entered sequence skips the first prompt within the same turn.
	out, err := e.Run(ctx, s, msg("y"))
	require.NoError(t, err)
	assert.Equal(t, []string{"got y", "second?"}, texts(out))
	assert.Equal(t, 1, s.Step)
	assert.Equal(t, true, s.Options["skip"])
	assert.Equal(t, 2, visits)
}

func TestEngine_ReplaceAtOffset(t *testing.T) {
	first := domain.Sequence{
		Name: "first",
		Steps: []domain.Step{{Name: "Jump", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
			sc.Values["lost"] = true
			return domain.ReplaceAt("second", nil, 1), nil
		}}},
	}
	second := domain.Sequence{
		Name: "second",
		Steps: []domain.Step{
			{Name: "Skipped", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				t.Fatal("offset must skip step 0")
				return domain.End(nil), nil
			}},
			{Name: "Landed", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				assert.Empty(t, sc.Values, "replace starts with an empty bag")
				sc.Send(domain.TextMessage("landed"))
				return domain.End(nil), nil
			}},
		},
	}
	e := newEngine(t, []domain.Sequence{first, second})
	out, err := e.Run(context.Background(), domain.NewSession(key), msg("go"))
	require.NoError(t, err)
	assert.Equal(t, []string{"landed"}, texts(out))
}

type silentPrompt struct{ value any }

func (p silentPrompt) Begin(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	return domain.Recognized(p.value), nil, nil
}

func (p silentPrompt) Continue(ctx context.Context, call *domain.PromptCall) (domain.PromptResult, []domain.Message, error) {
	return domain.Waiting(), nil, nil
}

func TestEngine_SilentPromptChains(t *testing.T) {
	seq := domain.Sequence{
		Name: "token",
		Steps: []domain.Step{
			{Name: "Auth", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				return domain.Await("oauth", domain.PromptOptions{}), nil
			}},
			{Name: "Use", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				sc.Send(domain.TextMessage("token " + sc.Result.(string)))
				return domain.End(nil), nil
			}},
		},
		Prompts: map[string]domain.Prompt{"oauth": silentPrompt{value: "abc"}},
	}
	e := newEngine(t, []domain.Sequence{seq})
	out, err := e.Run(context.Background(), domain.NewSession(key), msg("go"))
	require.NoError(t, err)
	assert.Equal(t, []string{"token abc"}, texts(out))
}

func TestEngine_FilterRunsBeforePendingPrompt(t *testing.T) {
	reached := false
	seq := survey()
	seq.Steps[1] = domain.Step{Name: "Success", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
		reached = true
		return domain.End(nil), nil
	}}
	logout := func(ctx context.Context, turn domain.Turn) (bool, []domain.Message, error) {
		if turn.IsMessage() && strings.HasPrefix(strings.ToLower(turn.Text), "logout") {
			return true, []domain.Message{domain.TextMessage("bye")}, nil
		}
		return false, nil, nil
	}
	e := newEngine(t, []domain.Sequence{seq}, runtime.WithFilter(logout))
	s := domain.NewSession(key)
	ctx := context.Background()

	_, err := e.Run(ctx, s, msg("hi"))
	require.NoError(t, err)
	require.NotNil(t, s.Pending)

	out, err := e.Run(ctx, s, msg("LOGOUT"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bye"}, texts(out))
	assert.False(t, s.Active())
	assert.Nil(t, s.Pending)
	assert.False(t, reached)
}

func TestEngine_InactiveSessionIgnoresEvents(t *testing.T) {
	e := newEngine(t, []domain.Sequence{survey()})
	s := domain.NewSession(key)

	out, err := e.Run(context.Background(), s, domain.NewTokenTurn(key, "tok"))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, s.Active())
}

func TestEngine_StepFault(t *testing.T) {
	boom := errors.New("graph down")
	seq := domain.Sequence{
		Name: "fail",
		Steps: []domain.Step{
			{Name: "Greet", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				sc.Send(domain.TextMessage("hello"))
				return domain.Next(nil), nil
			}},
			{Name: "Call", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
				return domain.Outcome{}, boom
			}},
		},
	}
	var ended []string
	hooks := domain.LifecycleHooks{OnSequenceEnd: func(ctx context.Context, ev *domain.SequenceEvent) {
		ended = append(ended, ev.Reason)
	}}
	e := newEngine(t, []domain.Sequence{seq}, runtime.WithLifecycleHooks(hooks))
	s := domain.NewSession(key)

	out, err := e.Run(context.Background(), s, msg("go"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "fail", stepErr.Sequence)
	assert.Equal(t, "Call", stepErr.Step)
	assert.Equal(t, 1, stepErr.Index)

	assert.Equal(t, []string{"hello"}, texts(out), "messages sent before the fault are kept")
	assert.False(t, s.Active())
	assert.Equal(t, []string{"fault"}, ended)
}

func TestEngine_Runaway(t *testing.T) {
	seq := domain.Sequence{
		Name: "spin",
		Steps: []domain.Step{{Name: "Again", Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
			return domain.Replace("spin", nil), nil
		}}},
	}
	e := newEngine(t, []domain.Sequence{seq}, runtime.WithMaxChain(10))
	s := domain.NewSession(key)

	_, err := e.Run(context.Background(), s, msg("go"))
	assert.ErrorIs(t, err, domain.ErrRunaway)
	assert.False(t, s.Active())
}

func TestEngine_UnknownTargets(t *testing.T) {
	t.Run("Prompt", func(t *testing.T) {
		seq := domain.Sequence{Name: "p", Steps: []domain.Step{ask("Ask", "?")}}
		e := newEngine(t, []domain.Sequence{seq})
		_, err := e.Run(context.Background(), domain.NewSession(key), msg("go"))
		assert.ErrorIs(t, err, domain.ErrUnknownPrompt)
	})

	t.Run("Replace", func(t *testing.T) {
		seq := domain.Sequence{Name: "r", Steps: []domain.Step{{Run: func(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
			return domain.Replace("missing", nil), nil
		}}}}
		e := newEngine(t, []domain.Sequence{seq})
		_, err := e.Run(context.Background(), domain.NewSession(key), msg("go"))
		assert.ErrorIs(t, err, domain.ErrUnknownSequence)
	})

	t.Run("Stored session", func(t *testing.T) {
		e := newEngine(t, []domain.Sequence{survey()})
		s := domain.NewSession(key)
		s.Start("retired", nil, 0)
		_, err := e.Run(context.Background(), s, msg("go"))
		assert.ErrorIs(t, err, domain.ErrUnknownSequence)
		assert.False(t, s.Active())
	})
}

func TestEngine_Hooks(t *testing.T) {
	var steps []string
	var prompts []domain.PromptStatus
	var turns []string
	hooks := domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, ev *domain.StepEvent) { steps = append(steps, ev.Step) },
		OnPrompt:    func(ctx context.Context, ev *domain.PromptEvent) { prompts = append(prompts, ev.Status) },
		OnTurn:      func(ctx context.Context, ev *domain.TurnEvent) { turns = append(turns, ev.Result) },
	}
	e := newEngine(t, []domain.Sequence{survey()}, runtime.WithLifecycleHooks(hooks))
	s := domain.NewSession(key)
	ctx := context.Background()

	_, _ = e.Run(ctx, s, domain.NewTokenTurn(key, "x"))
	_, _ = e.Run(ctx, s, msg("hi"))
	_, _ = e.Run(ctx, s, msg(""))
	_, _ = e.Run(ctx, s, msg("1"))

	assert.Equal(t, []string{"AskA", "store-a"}, steps)
	assert.Equal(t, []domain.PromptStatus{domain.PromptWaiting, domain.PromptInvalid, domain.PromptRecognized, domain.PromptWaiting}, prompts)
	assert.Equal(t, []string{domain.TurnIgnored, domain.TurnHandled, domain.TurnHandled, domain.TurnHandled}, turns)
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := runtime.NewEngine([]domain.Sequence{{Name: "empty"}})
	assert.Error(t, err)

	_, err = runtime.NewEngine([]domain.Sequence{survey(), survey()})
	assert.Error(t, err)

	_, err = runtime.NewEngine([]domain.Sequence{survey()}, runtime.WithEntry("nope", nil))
	assert.ErrorIs(t, err, domain.ErrUnknownSequence)

	e := newEngine(t, []domain.Sequence{survey()})
	info := e.Inspect()
	require.Len(t, info, 1)
	assert.Equal(t, []string{"AskA", "store-a", "store-b", "Finish"}, info[0].Steps)
	assert.Equal(t, []string{"text"}, info[0].Prompts)
}
