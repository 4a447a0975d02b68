/*
Package runner drives a TurnHandler from a line-oriented console.

Each line the user types becomes one message turn; the replies are printed
through an IOHandler. TextHandler renders replies for people (markdown,
card summaries and numbered suggestions), JSONHandler emits them as JSON
lines for scripts and tests.

# Usage

	r := runner.New(bot,
		runner.WithSessionKey(domain.SessionKey{ConversationID: "console", UserID: "me"}),
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
