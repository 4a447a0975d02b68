// Package redis backs sessions, turn locks and OAuth tokens with Redis, so
// several bot replicas can serve the same conversations.
package redis
