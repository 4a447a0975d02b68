/*
Package session implements session management and persistence orchestration.

Turns of one (conversation, user) pair must never run concurrently. The Manager
serializes them with an in-process keyed mutex and, when configured, a
distributed lock shared by all bot replicas. Turns of different sessions never
contend.
*/
package session
