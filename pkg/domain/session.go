package domain

import (
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"
)

// SessionKey identifies a session. There is exactly one session per
// (conversation, user) pair.
type SessionKey struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// ID returns the stable storage identifier of the key.
// Both parts are query-escaped so the separator never appears inside them.
func (k SessionKey) ID() string {
	return url.QueryEscape(k.ConversationID) + "!" + url.QueryEscape(k.UserID)
}

// Valid reports whether both parts of the key are set.
func (k SessionKey) Valid() bool {
	return k.ConversationID != "" && k.UserID != ""
}

func (k SessionKey) String() string {
	return k.ConversationID + "/" + k.UserID
}

// ParseSessionKey is the inverse of SessionKey.ID.
func ParseSessionKey(id string) (SessionKey, error) {
	conv, user, ok := strings.Cut(id, "!")
	if !ok {
		return SessionKey{}, fmt.Errorf("%w: %q", ErrInvalidSessionKey, id)
	}
	c, err := url.QueryUnescape(conv)
	if err != nil {
		return SessionKey{}, fmt.Errorf("%w: %v", ErrInvalidSessionKey, err)
	}
	u, err := url.QueryUnescape(user)
	if err != nil {
		return SessionKey{}, fmt.Errorf("%w: %v", ErrInvalidSessionKey, err)
	}
	key := SessionKey{ConversationID: c, UserID: u}
	if !key.Valid() {
		return SessionKey{}, fmt.Errorf("%w: %q", ErrInvalidSessionKey, id)
	}
	return key, nil
}

// PendingPrompt records the prompt a session is suspended on.
// State is owned by the prompt implementation and is opaque to the sequencer.
type PendingPrompt struct {
	Prompt   string            `json:"prompt"`
	Options  PromptOptions     `json:"options"`
	State    map[string]string `json:"state,omitempty"`
	Attempts int               `json:"attempts,omitempty"`
}

// Session is the persisted progress of one conversation participant.
//
// A session is either inactive (empty Sequence, Step 0, no Pending prompt, empty
// Values) or Step is a valid index into the sequence named by Sequence.
type Session struct {
	Key SessionKey `json:"key"`

	// Sequence is the name of the active sequence. Empty means inactive.
	Sequence string `json:"sequence,omitempty"`

	// Step is the index of the current step within Sequence.
	Step int `json:"step"`

	// Options are the parameters the active sequence was started with.
	Options map[string]any `json:"options,omitempty"`

	// Values is the context bag shared by the steps of the active sequence.
	Values map[string]any `json:"values,omitempty"`

	// Pending is set while the current step awaits input.
	Pending *PendingPrompt `json:"pending,omitempty"`

	// Turns counts processed turns over the lifetime of the record.
	Turns int `json:"turns"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an inactive session for key.
func NewSession(key SessionKey) *Session {
	return &Session{
		Key:    key,
		Values: make(map[string]any),
	}
}

// ID returns the storage identifier of the session.
func (s *Session) ID() string {
	return s.Key.ID()
}

// Active reports whether a sequence is in progress.
func (s *Session) Active() bool {
	return s.Sequence != ""
}

// Start points the session at the given sequence, dropping any previous progress.
func (s *Session) Start(sequence string, options map[string]any, offset int) {
	s.Sequence = sequence
	s.Step = offset
	s.Options = options
	s.Values = make(map[string]any)
	s.Pending = nil
}

// Reset makes the session inactive. The record itself survives.
func (s *Session) Reset() {
	s.Sequence = ""
	s.Step = 0
	s.Options = nil
	s.Values = make(map[string]any)
	s.Pending = nil
}

// Clone returns a copy that shares no maps with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Options = maps.Clone(s.Options)
	c.Values = maps.Clone(s.Values)
	if c.Values == nil {
		c.Values = make(map[string]any)
	}
	if s.Pending != nil {
		p := *s.Pending
		p.State = maps.Clone(s.Pending.State)
		p.Options.Choices = append([]string(nil), s.Pending.Options.Choices...)
		c.Pending = &p
	}
	return &c
}
