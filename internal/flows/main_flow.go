package flows

import (
	"context"
	"strings"

	"github.com/aretw0/calendarbot/pkg/cards"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/prompt"
)

// MenuChoices are the options of the main menu, in display order.
var MenuChoices = []string{"Show token", "Show me", "Show calendar", "Add event", "Log out"}

type mainFlow struct {
	deps  Deps
	oauth domain.Prompt
}

func newMainFlow(d Deps, oauth domain.Prompt) *mainFlow {
	return &mainFlow{deps: d, oauth: oauth}
}

func (f *mainFlow) sequence() domain.Sequence {
	return domain.Sequence{
		Name: MainSequence,
		Steps: []domain.Step{
			{Name: "AwaitLogin", Run: f.awaitLogin},
			{Name: "ProcessLogin", Run: f.processLogin},
			{Name: "AwaitChoice", Run: f.awaitChoice},
			{Name: "AwaitReauthForChoice", Run: f.awaitReauth},
			{Name: "Dispatch", Run: f.dispatch},
			{Name: "ReturnToPrompt", Run: f.returnToPrompt},
		},
		Prompts: map[string]domain.Prompt{
			promptOAuth:  f.oauth,
			promptChoice: prompt.NewChoice(),
		},
	}
}

func (f *mainFlow) awaitLogin(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	// Going through the sequence a second time: the token is still valid.
	if sc.Option(OptionNoPrompt) {
		return domain.Next(nil), nil
	}
	return domain.Await(promptOAuth, domain.PromptOptions{}), nil
}

func (f *mainFlow) processLogin(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	if sc.Option(OptionNoPrompt) {
		return domain.Next(nil), nil
	}
	if token, _ := sc.Result.(string); token != "" {
		sc.Send(domain.TextMessage("You are now logged in."))
		return domain.Next(nil), nil
	}
	sc.Send(domain.TextMessage("Login was not successful please try again."))
	return domain.End(nil), nil
}

func (f *mainFlow) awaitChoice(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	return domain.Await(promptChoice, domain.PromptOptions{
		Text:    "Please choose an option below",
		Choices: MenuChoices,
	}), nil
}

func (f *mainFlow) awaitReauth(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	// Keep the command across the token prompt, which completes silently
	// when the user is still signed in.
	command, _ := sc.Result.(string)
	sc.Values["command"] = command
	return domain.Await(promptOAuth, domain.PromptOptions{}), nil
}

func (f *mainFlow) dispatch(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	token, _ := sc.Result.(string)
	if token == "" {
		sc.Send(domain.TextMessage(msgLoginFailed))
		return domain.End(nil), nil
	}

	command, _ := sc.Values["command"].(string)
	command = strings.ToLower(command)

	switch {
	case strings.HasPrefix(command, "show token"):
		sc.Send(domain.TextMessage("Your token is: " + token))
	case strings.HasPrefix(command, "show me"):
		f.showMe(ctx, sc, token)
	case strings.HasPrefix(command, "show calendar"):
		f.showCalendar(ctx, sc, token)
	case strings.HasPrefix(command, "add event"):
		return domain.Replace(NewEventSequence, nil), nil
	case strings.HasPrefix(command, "log out"):
		f.deps.signOut(ctx, sc.Key)
		sc.Send(domain.TextMessage(msgSignedOut))
		return domain.End(nil), nil
	default:
		sc.Send(domain.TextMessage(msgNotUnderstood))
	}
	return domain.Next(nil), nil
}

func (f *mainFlow) returnToPrompt(ctx context.Context, sc *domain.StepContext) (domain.Outcome, error) {
	return domain.Replace(MainSequence, map[string]any{OptionNoPrompt: true}), nil
}

func (f *mainFlow) showMe(ctx context.Context, sc *domain.StepContext, token string) {
	var profile domain.Profile
	err := f.deps.Hooks.TrackCall(ctx, "profile", func() (err error) {
		profile, err = f.deps.Calendar.Profile(ctx, token)
		return err
	})
	if err != nil {
		f.fail(sc, "Could not get profile", err)
		return
	}
	sc.Send(cards.Attach(cards.Profile(profile)))
}

func (f *mainFlow) showCalendar(ctx context.Context, sc *domain.StepContext, token string) {
	var profile domain.Profile
	err := f.deps.Hooks.TrackCall(ctx, "profile", func() (err error) {
		profile, err = f.deps.Calendar.Profile(ctx, token)
		return err
	})
	if err != nil {
		f.fail(sc, "Could not get profile", err)
		return
	}

	start := f.deps.now(sc)
	end := start.Add(f.deps.UpcomingWindow)
	var events []domain.Event
	err = f.deps.Hooks.TrackCall(ctx, "calendar_view", func() (err error) {
		events, err = f.deps.Calendar.UpcomingEvents(ctx, token, start, end, MaxUpcomingEvents)
		return err
	})
	if err != nil {
		f.fail(sc, "Could not get calendar view", err)
		return
	}
	if len(events) == 0 {
		sc.Send(domain.TextMessage("You have no upcoming events."))
		return
	}

	layout := cards.Layout(profile.DateFormat, profile.TimeFormat)
	msg := domain.Message{Text: "Here are your upcoming events:"}
	for _, e := range events {
		msg.Attachments = append(msg.Attachments, cards.Attach(cards.Event(e, layout)).Attachments...)
	}
	sc.Send(msg)
}

func (f *mainFlow) fail(sc *domain.StepContext, what string, err error) {
	f.deps.Logger.Error(what,
		"session", sc.Key.String(),
		"sequence", sc.Sequence,
		"err", err,
	)
	sc.Send(domain.TextMessage(msgWentWrong))
}
