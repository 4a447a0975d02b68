package flows_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/calendarbot/internal/flows"
	"github.com/aretw0/calendarbot/internal/runtime"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/stretchr/testify/require"
)

var (
	key = domain.SessionKey{ConversationID: "conv", UserID: "user"}
	now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

type fakeAuth struct {
	mu       sync.Mutex
	token    string
	signOuts int
}

func (a *fakeAuth) Token(ctx context.Context, k domain.SessionKey) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" {
		return "", domain.ErrTokenUnavailable
	}
	return a.token, nil
}

func (a *fakeAuth) SignInLink(ctx context.Context, k domain.SessionKey) (string, error) {
	return "https://login.example/authorize?state=x", nil
}

func (a *fakeAuth) SignOut(ctx context.Context, k domain.SessionKey) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.signOuts++
	return nil
}

type fakeCalendar struct {
	profile   domain.Profile
	events    []domain.Event
	createErr error
	viewErr   error
	created   []domain.EventDraft
	window    [2]time.Time
}

func (c *fakeCalendar) Profile(ctx context.Context, token string) (domain.Profile, error) {
	return c.profile, nil
}

func (c *fakeCalendar) UpcomingEvents(ctx context.Context, token string, start, end time.Time, max int) ([]domain.Event, error) {
	c.window = [2]time.Time{start, end}
	if c.viewErr != nil {
		return nil, c.viewErr
	}
	if len(c.events) > max {
		return c.events[:max], nil
	}
	return c.events, nil
}

func (c *fakeCalendar) CreateEvent(ctx context.Context, token string, draft domain.EventDraft) (domain.Event, error) {
	if c.createErr != nil {
		return domain.Event{}, c.createErr
	}
	c.created = append(c.created, draft)
	return domain.Event{ID: "evt-1", Subject: draft.Subject, Start: draft.Start, End: draft.End}, nil
}

// fakeRecognizer resolves a few fixed phrases relative to ref.
type fakeRecognizer struct{}

func (fakeRecognizer) Recognize(ctx context.Context, text string, ref time.Time) ([]domain.Candidate, error) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day()+1, 0, 0, 0, 0, ref.Location())
	at := func(h, m int) []domain.Candidate {
		return []domain.Candidate{{Text: text, Value: day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), HasDate: true, HasTime: true}}
	}
	switch text {
	case "tomorrow 9am":
		return at(9, 0), nil
	case "tomorrow 8am":
		return at(8, 0), nil
	case "tomorrow 9:30am":
		return at(9, 30), nil
	case "tomorrow":
		return []domain.Candidate{{Text: text, Value: day, HasDate: true}}, nil
	case "now":
		return []domain.Candidate{{Text: text, Value: ref, Now: true}}, nil
	case "broken":
		return nil, errors.New("recognizer down")
	}
	return nil, nil
}

type harness struct {
	t      *testing.T
	auth   *fakeAuth
	cal    *fakeCalendar
	engine *runtime.Engine
	sess   *domain.Session
	clock  time.Time
	calls  []string
}

func newHarness(t *testing.T, token string) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		auth:  &fakeAuth{token: token},
		cal:   &fakeCalendar{profile: domain.Profile{DisplayName: "Ada Lovelace", Mail: "ada@contoso.com", TimeZone: "UTC"}},
		sess:  domain.NewSession(key),
		clock: now,
	}
	d := flows.Deps{
		Auth:       h.auth,
		Calendar:   h.cal,
		Recognizer: fakeRecognizer{},
		Location:   time.UTC,
		Hooks: domain.LifecycleHooks{
			OnCall: func(_ context.Context, ev *domain.CallEvent) { h.calls = append(h.calls, ev.Operation) },
		},
	}
	e, err := runtime.NewEngine(flows.Sequences(d),
		runtime.WithFilter(flows.LogoutFilter(d)),
		runtime.WithClock(func() time.Time { return h.clock }),
	)
	require.NoError(t, err)
	h.engine = e
	return h
}

// say sends a message turn and returns the texts of the replies.
func (h *harness) say(text string) []string {
	h.t.Helper()
	out, err := h.engine.Run(context.Background(), h.sess, domain.NewMessageTurn(key, text))
	require.NoError(h.t, err)
	return texts(out)
}

func (h *harness) send(turn domain.Turn) []domain.Message {
	h.t.Helper()
	out, err := h.engine.Run(context.Background(), h.sess, turn)
	require.NoError(h.t, err)
	return out
}

func texts(msgs []domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}
