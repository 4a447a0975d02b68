// Package runtime implements the step sequencer that drives one session
// through its active sequence, one inbound turn at a time.
package runtime
