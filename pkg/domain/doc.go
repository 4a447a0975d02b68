/*
Package domain contains the core models of the calendar bot.

It defines the entities the step sequencer works with: sessions, turns, steps and
the outcomes they produce, prompts, and the calendar records exchanged with the
external services. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - Session: persisted progress of one (conversation, user) pair through a sequence.
  - Turn: one inbound message or event.
  - Sequence: a named, ordered list of Steps.
  - Outcome: what a step asks the sequencer to do next (await, advance, replace, end).
  - Prompt: a single-turn input request that parses the next reply.
*/
package domain
