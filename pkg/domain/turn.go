package domain

import "time"

// TurnType is the kind of inbound activity.
type TurnType string

const (
	TurnMessage            TurnType = "message"
	TurnActivityEvent      TurnType = "event"
	TurnConversationUpdate TurnType = "conversationUpdate"
)

// EventTokenResponse is the event name carrying a token obtained out of band.
const EventTokenResponse = "tokens/response"

// Turn is one inbound user message or event.
type Turn struct {
	ID   string     `json:"id,omitempty"`
	Type TurnType   `json:"type"`
	Key  SessionKey `json:"key"`

	// Text is the message text (message turns only).
	Text string `json:"text,omitempty"`

	// Name and Value describe event turns.
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`

	// MembersAdded lists user ids joining the conversation (conversation updates only).
	MembersAdded []string `json:"members_added,omitempty"`

	// RecipientID is the bot's own id, used to tell the bot apart from users.
	RecipientID string `json:"recipient_id,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewMessageTurn builds a message turn for key.
func NewMessageTurn(key SessionKey, text string) Turn {
	return Turn{Type: TurnMessage, Key: key, Text: text, Timestamp: time.Now()}
}

// NewTokenTurn builds a tokens/response event carrying token.
func NewTokenTurn(key SessionKey, token string) Turn {
	return Turn{
		Type:      TurnActivityEvent,
		Key:       key,
		Name:      EventTokenResponse,
		Value:     map[string]any{"token": token},
		Timestamp: time.Now(),
	}
}

// IsMessage reports whether the turn is a user message.
func (t Turn) IsMessage() bool {
	return t.Type == TurnMessage
}

// Token extracts the token of a tokens/response event.
func (t Turn) Token() (string, bool) {
	if t.Type != TurnActivityEvent || t.Name != EventTokenResponse {
		return "", false
	}
	switch v := t.Value.(type) {
	case string:
		return v, v != ""
	case map[string]any:
		tok, _ := v["token"].(string)
		return tok, tok != ""
	case map[string]string:
		return v["token"], v["token"] != ""
	}
	return "", false
}
