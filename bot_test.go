package calendarbot_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aretw0/calendarbot"
	"github.com/aretw0/calendarbot/pkg/adapters/memory"
	"github.com/aretw0/calendarbot/pkg/adapters/oauth"
	"github.com/aretw0/calendarbot/pkg/adapters/when"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ana   = domain.SessionKey{ConversationID: "team-chat", UserID: "ana"}
	clock = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

type stubCalendar struct {
	mu      sync.Mutex
	created []domain.EventDraft
}

func (c *stubCalendar) Profile(context.Context, string) (domain.Profile, error) {
	return domain.Profile{DisplayName: "Ana Lima", Mail: "ana@contoso.com"}, nil
}

func (c *stubCalendar) UpcomingEvents(context.Context, string, time.Time, time.Time, int) ([]domain.Event, error) {
	return nil, nil
}

func (c *stubCalendar) CreateEvent(_ context.Context, _ string, d domain.EventDraft) (domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, d)
	return domain.Event{ID: "1", Subject: d.Subject}, nil
}

type stubRecognizer struct{}

func (stubRecognizer) Recognize(_ context.Context, text string, ref time.Time) ([]domain.Candidate, error) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day()+1, 0, 0, 0, 0, ref.Location())
	switch text {
	case "tomorrow 9am":
		return []domain.Candidate{{Text: text, Value: day.Add(9 * time.Hour), HasDate: true, HasTime: true}}, nil
	case "tomorrow 10am":
		return []domain.Candidate{{Text: text, Value: day.Add(10 * time.Hour), HasDate: true, HasTime: true}}, nil
	case "explode":
		return nil, errors.New("recognizer unavailable")
	}
	return nil, nil
}

func newBot(t *testing.T, token string, opts ...calendarbot.Option) (*calendarbot.Bot, *stubCalendar) {
	t.Helper()
	cal := &stubCalendar{}
	base := []calendarbot.Option{
		calendarbot.WithAuthenticator(oauth.NewStatic(token, "https://login.example/")),
		calendarbot.WithCalendar(cal),
		calendarbot.WithRecognizer(stubRecognizer{}),
		calendarbot.WithLocation(time.UTC),
		calendarbot.WithClock(func() time.Time { return clock }),
	}
	bot, err := calendarbot.New(append(base, opts...)...)
	require.NoError(t, err)
	return bot, cal
}

func say(t *testing.T, bot *calendarbot.Bot, key domain.SessionKey, text string) []string {
	t.Helper()
	out, err := bot.Turn(context.Background(), domain.NewMessageTurn(key, text))
	require.NoError(t, err)
	texts := make([]string, len(out))
	for i, m := range out {
		texts[i] = m.Text
	}
	return texts
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := calendarbot.New(calendarbot.WithCalendar(&stubCalendar{}))
	assert.ErrorContains(t, err, "Authenticator")

	_, err = calendarbot.New(calendarbot.WithAuthenticator(oauth.NewStatic("", "")))
	assert.ErrorContains(t, err, "Calendar")
}

func TestBot_Welcome(t *testing.T) {
	bot, _ := newBot(t, "tok")
	out, err := bot.Turn(context.Background(), domain.Turn{
		Type:         domain.TurnConversationUpdate,
		Key:          ana,
		MembersAdded: []string{"bot", "ana", "bob"},
		RecipientID:  "bot",
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, calendarbot.DefaultWelcome, out[0].Text)

	ids, err := bot.Sessions().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "greeting does not create a session")
}

func TestBot_InvalidKey(t *testing.T) {
	bot, _ := newBot(t, "tok")
	_, err := bot.Turn(context.Background(), domain.NewMessageTurn(domain.SessionKey{UserID: "ana"}, "hi"))
	assert.ErrorIs(t, err, domain.ErrInvalidSessionKey)
}

func TestBot_CreateEventAcrossTurns(t *testing.T) {
	store := memory.NewStore()
	bot, cal := newBot(t, "tok", calendarbot.WithStore(store))

	assert.Equal(t, []string{"You are now logged in.", "Please choose an option below"}, say(t, bot, ana, "hello"))
	assert.Equal(t, []string{"What's the subject for your event?"}, say(t, bot, ana, "Add Event"))

	persisted, err := store.Load(context.Background(), ana.ID())
	require.NoError(t, err)
	assert.Equal(t, "new-event", persisted.Sequence)

	say(t, bot, ana, "Planning")
	say(t, bot, ana, "no")
	say(t, bot, ana, "tomorrow 9am")
	out := say(t, bot, ana, "tomorrow 10am")
	assert.Equal(t, "Is this correct?", out[len(out)-1])
	assert.Equal(t, []string{"Event added"}, say(t, bot, ana, "yes"))

	require.Len(t, cal.created, 1)
	assert.Equal(t, "Planning", cal.created[0].Subject)
	assert.Equal(t, []string{}, cal.created[0].Attendees)

	s, err := bot.Sessions().Load(context.Background(), ana)
	require.NoError(t, err)
	assert.False(t, s.Active())
}

func TestBot_DatesResolveInConfiguredZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 22:00 on Oct 19 in New York, already Oct 20 in UTC.
	lateEvening := time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC)
	bot, cal := newBot(t, "tok",
		calendarbot.WithRecognizer(when.New()),
		calendarbot.WithLocation(ny),
		calendarbot.WithClock(func() time.Time { return lateEvening }),
	)

	say(t, bot, ana, "hi")
	say(t, bot, ana, "add event")
	say(t, bot, ana, "Late")
	say(t, bot, ana, "no")
	say(t, bot, ana, "tomorrow 9am")
	say(t, bot, ana, "tomorrow 10am")
	assert.Equal(t, []string{"Event added"}, say(t, bot, ana, "yes"))

	require.Len(t, cal.created, 1)
	assert.Equal(t, "2026-10-20 09:00", cal.created[0].Start.In(ny).Format("2006-01-02 15:04"))
	assert.Equal(t, "2026-10-20 10:00", cal.created[0].End.In(ny).Format("2006-01-02 15:04"))
}

func TestBot_StepFaultRepliesAndResets(t *testing.T) {
	bot, _ := newBot(t, "tok")
	say(t, bot, ana, "hi")
	say(t, bot, ana, "add event")
	say(t, bot, ana, "Planning")
	say(t, bot, ana, "no")

	assert.Equal(t, []string{calendarbot.FaultReply}, say(t, bot, ana, "explode"))

	s, err := bot.Sessions().Load(context.Background(), ana)
	require.NoError(t, err)
	assert.False(t, s.Active())

	assert.Equal(t, []string{"You are now logged in.", "Please choose an option below"}, say(t, bot, ana, "hi"))
}

func TestBot_LogoutThenSignInWithCode(t *testing.T) {
	bot, _ := newBot(t, "tok")
	say(t, bot, ana, "hi")
	assert.Equal(t, []string{"You have been signed out."}, say(t, bot, ana, "Log out"))

	out, err := bot.Turn(context.Background(), domain.NewMessageTurn(ana, "show token"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Please login", out[0].Text)
	require.Len(t, out[0].Attachments, 1)
	assert.Equal(t, domain.ContentTypeAdaptiveCard, out[0].Attachments[0].ContentType)

	assert.Equal(t, []string{"You are now logged in.", "Please choose an option below"}, say(t, bot, ana, "123456"))
}

func TestBot_SessionsAreIndependent(t *testing.T) {
	bot, _ := newBot(t, "tok")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := domain.SessionKey{ConversationID: "room", UserID: fmt.Sprintf("user-%d", i)}
			say(t, bot, key, "hi")
			say(t, bot, key, "add event")
		}()
	}
	wg.Wait()

	ids, err := bot.Sessions().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 8)
	for _, id := range ids {
		s, err := bot.Sessions().Inspect(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "new-event", s.Sequence)
	}
}

func TestBot_Inspect(t *testing.T) {
	bot, _ := newBot(t, "tok")
	seqs := bot.Inspect()
	require.Len(t, seqs, 2)
	assert.Equal(t, "main", seqs[0].Name)
	assert.Equal(t, "new-event", seqs[1].Name)
	assert.Contains(t, seqs[1].Steps, "Commit")
}
