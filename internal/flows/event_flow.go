package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/calendarbot/pkg/cards"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/prompt"
)

type eventFlow struct {
	deps  Deps
	oauth domain.Prompt
}

func newEventFlow(d Deps, oauth domain.Prompt) *eventFlow {
	return &eventFlow{deps: d, oauth: oauth}
}

func (f *eventFlow) sequence() domain.Sequence {
	return domain.Sequence{
		Name: NewEventSequence,
		Steps: []domain.Step{
			{Name: "AwaitSubject", Run: f.awaitSubject},
			{Name: "AwaitWantAttendees", Run: f.awaitWantAttendees},
			{Name: "AwaitAttendeeList", Run: f.awaitAttendeeList},
			{Name: "AwaitStart", Run: f.awaitStart},
			{Name: "AwaitEnd", Run: f.awaitEnd},
			{Name: "Confirm", Run: f.confirm},
			{Name: "AwaitReauth", Run: f.awaitReauth},
			{Name: "Commit", Run: f.commit},
		},
		Prompts: map[string]domain.Prompt{
			promptOAuth:     f.oauth,
			promptSubject:   prompt.NewText(nil),
			promptConfirm:   prompt.NewConfirm(),
			promptAttendees: prompt.NewText(func(_ context.Context, s string) bool { return ValidAttendees(s) }),
			promptStart:     prompt.NewDateTime(f.deps.Recognizer, ValidStart),
			promptEnd:       prompt.NewDateTime(f.deps.Recognizer, ValidEnd),
		},
	}
}

func (f *eventFlow) awaitSubject(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	return domain.Await(promptSubject, domain.PromptOptions{
		Text: "What's the subject for your event?",
	}), nil
}

func (f *eventFlow) awaitWantAttendees(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	sc.Values[keySubject], _ = sc.Result.(string)
	return domain.Await(promptConfirm, domain.PromptOptions{
		Text: "Do you want to invite other people to this event?",
	}), nil
}

func (f *eventFlow) awaitAttendeeList(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	if want, _ := sc.Result.(bool); !want {
		return domain.Next(nil), nil
	}
	return domain.Await(promptAttendees, domain.PromptOptions{
		Text:      "Enter one or more email addresses of the people you want to invite. Separate multiple addresses with a semi-colon (;).",
		RetryText: "One or more email addresses you entered are not valid. Please try again.",
	}), nil
}

func (f *eventFlow) awaitStart(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	list, _ := sc.Result.(string)
	sc.Values[keyAttendees] = SplitAttendees(list)
	return domain.Await(promptStart, domain.PromptOptions{
		Text:      "When does the event start?",
		RetryText: "I'm sorry, I didn't get that. Please provide both a day and a time.",
	}), nil
}

func (f *eventFlow) awaitEnd(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	start, err := resolved(sc.Result)
	if err != nil {
		return domain.Outcome{}, err
	}
	sc.Values[keyStart] = start
	return domain.Await(promptEnd, domain.PromptOptions{
		Text:        "When does the event end?",
		RetryText:   "I'm sorry, I didn't get that. Please provide both a day and a time, and ensure that it is later than the start.",
		Validations: start.Format(time.RFC3339Nano),
	}), nil
}

func (f *eventFlow) confirm(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	end, err := resolved(sc.Result)
	if err != nil {
		return domain.Outcome{}, err
	}
	sc.Values[keyEnd] = end

	draft, err := DecodeDraft(sc.Values)
	if err != nil {
		return domain.Outcome{}, err
	}
	sc.Send(domain.MarkdownMessage(Playback(draft)))
	return domain.Await(promptConfirm, domain.PromptOptions{Text: "Is this correct?"}), nil
}

func (f *eventFlow) awaitReauth(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	if ok, _ := sc.Result.(bool); !ok {
		sc.Send(domain.TextMessage("Please try again."))
		return domain.End(nil), nil
	}
	return domain.Await(promptOAuth, domain.PromptOptions{}), nil
}

func (f *eventFlow) commit(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	token, _ := sc.Result.(string)
	if token == "" {
		sc.Send(domain.TextMessage(msgLoginFailed))
		return domain.End(nil), nil
	}

	draft, err := DecodeDraft(sc.Values)
	if err != nil {
		return domain.Outcome{}, err
	}
	err = f.deps.Hooks.TrackCall(ctx, "create_event", func() error {
		_, err := f.deps.Calendar.CreateEvent(ctx, token, draft)
		return err
	})
	if err != nil {
		f.deps.Logger.Error("Could not add event",
			"session", sc.Key.String(),
			"sequence", sc.Sequence,
			"err", err,
		)
		sc.Send(domain.TextMessage(msgWentWrong))
		return domain.End(nil), nil
	}
	sc.Send(domain.TextMessage("Event added"))
	return domain.End(draft), nil
}

// Playback renders the draft as the markdown summary shown before confirmation.
func Playback(d domain.EventDraft) string {
	attendees := "none"
	if len(d.Attendees) > 0 {
		attendees = strings.Join(d.Attendees, "; ")
	}
	var b strings.Builder
	b.WriteString("Here's what I heard:\n\n")
	fmt.Fprintf(&b, "- **Subject:** %s\n", d.Subject)
	fmt.Fprintf(&b, "- **Attendees:** %s\n", attendees)
	fmt.Fprintf(&b, "- **Start:** %s\n", d.Start.Format(cards.DefaultLayout))
	fmt.Fprintf(&b, "- **End:** %s", d.End.Format(cards.DefaultLayout))
	return b.String()
}

// resolved extracts the instant of a date-time prompt result.
func resolved(result any) (time.Time, error) {
	c, ok := result.(domain.Candidate)
	if !ok {
		return time.Time{}, fmt.Errorf("expected a date-time candidate, got %T", result)
	}
	return c.Value, nil
}
