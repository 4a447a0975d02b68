// Package cards renders profiles, events and sign-in requests as Adaptive Cards.
package cards

import (
	"strings"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// Version is the Adaptive Card schema version emitted.
const Version = "1.2"

// AdaptiveCard is the root of an Adaptive Card.
type AdaptiveCard struct {
	Type    string            `json:"type"`
	Version string            `json:"version"`
	Body    []AdaptiveElement `json:"body"`
	Actions []AdaptiveAction  `json:"actions,omitempty"`
}

// AdaptiveElement is a body element (TextBlock, ColumnSet, FactSet, Image).
type AdaptiveElement struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Size     string            `json:"size,omitempty"`
	Weight   string            `json:"weight,omitempty"`
	IsSubtle bool              `json:"isSubtle,omitempty"`
	Wrap     bool              `json:"wrap,omitempty"`
	Spacing  string            `json:"spacing,omitempty"`
	URL      string            `json:"url,omitempty"`
	Style    string            `json:"style,omitempty"`
	Columns  []AdaptiveColumn  `json:"columns,omitempty"`
	Facts    []AdaptiveFact    `json:"facts,omitempty"`
	Items    []AdaptiveElement `json:"items,omitempty"`
}

// AdaptiveColumn is a column of a ColumnSet.
type AdaptiveColumn struct {
	Type  string            `json:"type"`
	Width string            `json:"width,omitempty"`
	Items []AdaptiveElement `json:"items,omitempty"`
}

// AdaptiveFact is a title/value pair of a FactSet.
type AdaptiveFact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// AdaptiveAction is a card action.
type AdaptiveAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

func newCard(body ...AdaptiveElement) *AdaptiveCard {
	return &AdaptiveCard{Type: "AdaptiveCard", Version: Version, Body: body}
}

// Profile builds the card shown for "show me".
func Profile(p domain.Profile) *AdaptiveCard {
	return newCard(AdaptiveElement{
		Type: "ColumnSet",
		Columns: []AdaptiveColumn{
			{
				Type:  "Column",
				Width: "stretch",
				Items: []AdaptiveElement{
					{Type: "TextBlock", Weight: "bolder", Wrap: true, Text: p.DisplayName},
					{Type: "TextBlock", Spacing: "none", IsSubtle: true, Wrap: true, Text: p.Address()},
				},
			},
		},
	})
}

// Event builds the card of one calendar event. layout comes from Layout.
func Event(e domain.Event, layout string) *AdaptiveCard {
	facts := []AdaptiveFact{
		{Title: "Start", Value: Format(e.Start, layout)},
		{Title: "End", Value: Format(e.End, layout)},
	}
	if e.Location != "" {
		facts = append(facts, AdaptiveFact{Title: "Location", Value: e.Location})
	}
	return newCard(
		AdaptiveElement{Type: "TextBlock", Size: "medium", Weight: "bolder", Text: e.Subject},
		AdaptiveElement{Type: "TextBlock", Size: "default", Weight: "lighter", Spacing: "none", Text: e.Organizer},
		AdaptiveElement{Type: "FactSet", Facts: facts},
	)
}

// SignIn builds the card asking the user to sign in at link.
func SignIn(title, text, link string) *AdaptiveCard {
	card := newCard(AdaptiveElement{Type: "TextBlock", Wrap: true, Text: text})
	card.Actions = []AdaptiveAction{{Type: "Action.OpenUrl", Title: title, URL: link}}
	return card
}

// Attach wraps a card into an outbound message.
func Attach(card *AdaptiveCard) domain.Message {
	return domain.Message{
		Attachments: []domain.Attachment{{ContentType: domain.ContentTypeAdaptiveCard, Content: card}},
	}
}

// Summary renders a card as plain text for surfaces without card support.
func Summary(card *AdaptiveCard) string {
	var lines []string
	var walk func(els []AdaptiveElement)
	walk = func(els []AdaptiveElement) {
		for _, el := range els {
			if el.Text != "" {
				lines = append(lines, el.Text)
			}
			for _, f := range el.Facts {
				lines = append(lines, f.Title+": "+f.Value)
			}
			for _, c := range el.Columns {
				walk(c.Items)
			}
			walk(el.Items)
		}
	}
	walk(card.Body)
	for _, a := range card.Actions {
		if a.URL != "" {
			lines = append(lines, a.Title+": "+a.URL)
		}
	}
	return strings.Join(lines, "\n")
}
