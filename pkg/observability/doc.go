/*
Package observability turns bot lifecycle hooks into Prometheus metrics and
audit log lines.

Both are plain domain.LifecycleHooks values, so they compose with
LifecycleHooks.Merge and can be handed to calendarbot.WithLifecycleHooks.
*/
package observability
