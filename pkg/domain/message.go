package domain

// TextFormat tells the surface how to render Message.Text.
type TextFormat string

const (
	FormatPlain    TextFormat = "plain"
	FormatMarkdown TextFormat = "markdown"
)

// ContentTypeAdaptiveCard is the attachment content type of rendered cards.
const ContentTypeAdaptiveCard = "application/vnd.microsoft.card.adaptive"

// Attachment is a rich payload such as a card.
type Attachment struct {
	ContentType string `json:"content_type"`
	Content     any    `json:"content"`
}

// Message is one outbound message produced by a turn.
type Message struct {
	Text        string       `json:"text,omitempty"`
	Format      TextFormat   `json:"format,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Suggestions are quick replies the surface may offer as buttons.
	Suggestions []string `json:"suggestions,omitempty"`
}

// TextMessage returns a plain text message.
func TextMessage(text string) Message {
	return Message{Text: text, Format: FormatPlain}
}

// MarkdownMessage returns a markdown message.
func MarkdownMessage(text string) Message {
	return Message{Text: text, Format: FormatMarkdown}
}
