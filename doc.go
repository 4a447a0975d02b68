/*
Package calendarbot is a conversational bot that signs a user in to
Microsoft Graph, shows their profile and upcoming events, and walks them
through creating a calendar event.

The dialog engine is a step sequencer: each conversation is a Session that
remembers which sequence is active, the step it is on, the answers collected
so far and the prompt it is waiting on. Every inbound Turn is processed to
completion, chaining steps until one needs more input, and the Session is
saved before the reply goes out. This lets the bot run behind stateless
transports (HTTP, MCP, a console) and across replicas.

# Architecture

  - pkg/domain: sessions, turns, messages, prompts and step outcomes.
  - pkg/ports: storage, locking, identity and calendar interfaces.
  - internal/runtime: the sequencer.
  - internal/flows: the main menu and new-event conversations.
  - pkg/adapters: Redis, file and memory stores, the OAuth code flow,
    Microsoft Graph, date recognition, HTTP and MCP front ends.

# Usage

	bot, err := calendarbot.New(
		calendarbot.WithAuthenticator(auth),
		calendarbot.WithCalendar(graph.New()),
		calendarbot.WithStore(redis.New("localhost:6379", "", 0)),
	)
	if err != nil {
		log.Fatal(err)
	}

	key := domain.SessionKey{ConversationID: "conv-1", UserID: "ana"}
	replies, err := bot.Turn(ctx, domain.NewMessageTurn(key, "show calendar"))
*/
package calendarbot
