package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/aretw0/calendarbot"
	"github.com/aretw0/calendarbot/internal/presentation/tui"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/runner"
)

// ChatOptions configures a console conversation.
type ChatOptions struct {
	In   io.Reader
	Out  io.Writer
	JSON bool
	Key  domain.SessionKey
	// Banner and Markdown apply to text mode only.
	Banner   bool
	Markdown bool
	Width    int
}

// RunChat runs one console conversation until EOF, "exit" or ctx ends.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if !opts.Key.Valid() {
		opts.Key = runner.DefaultSessionKey
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		if opts.Banner {
			tui.PrintBanner(opts.Out, calendarbot.Version)
		}
		var textOpts []runner.TextHandlerOption
		if opts.Markdown {
			textOpts = append(textOpts, runner.WithTextRenderer(tui.NewRenderer(opts.Width)))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	r := runner.New(app.Bot,
		runner.WithHandler(handler),
		runner.WithSessionKey(opts.Key),
		runner.WithGreeting(true),
		runner.WithLogger(app.Logger),
	)

	err := r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
