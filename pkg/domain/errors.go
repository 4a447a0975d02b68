package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownSequence is returned when a session or outcome names an unregistered sequence.
var ErrUnknownSequence = errors.New("unknown sequence")

// ErrUnknownPrompt is returned when a step awaits a prompt its sequence does not declare.
var ErrUnknownPrompt = errors.New("unknown prompt")

// ErrRunaway is returned when steps keep chaining within one turn past the configured bound.
var ErrRunaway = errors.New("step chain limit exceeded")

// ErrTokenUnavailable is returned by authenticators that hold no token for a user.
var ErrTokenUnavailable = errors.New("token unavailable")

// ErrInvalidSessionKey is returned for malformed session identifiers.
var ErrInvalidSessionKey = errors.New("invalid session key")

// StepError is a fault that escaped a step body.
type StepError struct {
	Sequence string
	Step     string
	Index    int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s[%d] %q: %v", e.Sequence, e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
