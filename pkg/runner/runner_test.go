package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/calendarbot/pkg/cards"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/aretw0/calendarbot/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoBot answers every message with its upper-cased text.
type echoBot struct {
	mu    sync.Mutex
	turns []domain.Turn
	err   error
}

func (b *echoBot) Turn(_ context.Context, turn domain.Turn) ([]domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, turn)
	if b.err != nil {
		return nil, b.err
	}
	if turn.Type == domain.TurnConversationUpdate {
		return []domain.Message{domain.TextMessage("welcome")}, nil
	}
	return []domain.Message{domain.TextMessage(strings.ToUpper(turn.Text))}, nil
}

func (b *echoBot) Inspect() []ports.SequenceInfo { return nil }

func TestRunner_TextLoop(t *testing.T) {
	bot := &echoBot{}
	out := &bytes.Buffer{}
	r := runner.New(bot,
		runner.WithHandler(runner.NewTextHandler(strings.NewReader("hello\n\nshow calendar\nexit\nignored\n"), out)),
		runner.WithGreeting(true),
	)

	require.NoError(t, r.Run(context.Background()))

	require.Len(t, bot.turns, 3, "blank lines are skipped and exit stops the loop")
	assert.Equal(t, domain.TurnConversationUpdate, bot.turns[0].Type)
	assert.Equal(t, runner.DefaultSessionKey, bot.turns[1].Key)
	assert.Equal(t, "show calendar", bot.turns[2].Text)

	got := out.String()
	assert.Contains(t, got, "welcome\n")
	assert.Contains(t, got, "> HELLO\n")
	assert.Contains(t, got, "SHOW CALENDAR\n")
	assert.Contains(t, got, "[System] Bye!")
}

func TestRunner_StopsOnEOF(t *testing.T) {
	bot := &echoBot{}
	r := runner.New(bot, runner.WithHandler(runner.NewTextHandler(strings.NewReader("last line without newline"), &bytes.Buffer{})))
	require.NoError(t, r.Run(context.Background()))
	require.Len(t, bot.turns, 1)
	assert.Equal(t, "last line without newline", bot.turns[0].Text)
}

func TestRunner_TurnError(t *testing.T) {
	bot := &echoBot{err: errors.New("store down")}
	r := runner.New(bot, runner.WithHandler(runner.NewTextHandler(strings.NewReader("hi\n"), &bytes.Buffer{})))
	assert.ErrorContains(t, r.Run(context.Background()), "store down")
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := runner.New(&echoBot{}, runner.WithHandler(runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})))
	assert.NoError(t, r.Run(ctx))
}

func TestRunner_JSONLoop(t *testing.T) {
	bot := &echoBot{}
	out := &bytes.Buffer{}
	key := domain.SessionKey{ConversationID: "script", UserID: "ci"}
	r := runner.New(bot,
		runner.WithHandler(runner.NewJSONHandler(strings.NewReader("\"add event\"\nplain text\n"), out)),
		runner.WithSessionKey(key),
	)

	require.NoError(t, r.Run(context.Background()))
	require.Len(t, bot.turns, 2)
	assert.Equal(t, "add event", bot.turns[0].Text)
	assert.Equal(t, "plain text", bot.turns[1].Text)
	assert.Equal(t, key, bot.turns[1].Key)

	dec := json.NewDecoder(out)
	var first []domain.Message
	require.NoError(t, dec.Decode(&first))
	require.Len(t, first, 1)
	assert.Equal(t, "ADD EVENT", first[0].Text)
}

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	h := runner.NewTextHandler(strings.NewReader(""), out, runner.WithTextRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	card := cards.SignIn("Login", "Please login", "https://login.example/")
	msgs := []domain.Message{
		domain.TextMessage("plain"),
		domain.MarkdownMessage("**bold**"),
		cards.Attach(card),
		{Text: "Please choose an option below", Suggestions: []string{"Show token", "Log out"}},
	}
	require.NoError(t, h.Output(context.Background(), msgs))

	got := out.String()
	assert.Contains(t, got, "plain\n")
	assert.NotContains(t, got, "Rendered: plain")
	assert.Contains(t, got, "Rendered: **bold**")
	assert.Contains(t, got, "  | Login: https://login.example/")
	assert.Contains(t, got, "  [1] Show token\n  [2] Log out\n")
}

func TestTextHandler_InputRejectsOversized(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "5")
	out := &bytes.Buffer{}
	h := runner.NewTextHandler(strings.NewReader("too long line\nok\n"), out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Contains(t, out.String(), "input exceeds maximum allowed size")
}
