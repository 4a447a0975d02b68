/*
Package ports defines the driven ports (interfaces) of the calendar bot.

These interfaces decouple the sequencer and the flows from external
implementations, allowing the bot to work with various storage backends,
identity providers and calendar services.

# Key Interfaces

  - SessionStore: persists and loads Sessions.
  - DistributedLocker: serializes turns of one session across replicas.
  - Authenticator: obtains and revokes user tokens.
  - Calendar: reads the profile and events of a user and creates events.
  - Recognizer: turns natural-language text into date-time candidates.
*/
package ports
