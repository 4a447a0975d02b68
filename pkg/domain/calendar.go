package domain

import "time"

// Profile is the subset of the user's directory and mailbox settings the bot uses.
type Profile struct {
	DisplayName       string `json:"display_name"`
	Mail              string `json:"mail,omitempty"`
	UserPrincipalName string `json:"user_principal_name,omitempty"`
	TimeZone          string `json:"time_zone,omitempty"`

	// DateFormat and TimeFormat use Windows format strings ("dd/MM/yyyy", "HH:mm").
	DateFormat string `json:"date_format,omitempty"`
	TimeFormat string `json:"time_format,omitempty"`
}

// Address returns the mail address, falling back to the principal name.
func (p Profile) Address() string {
	if p.Mail != "" {
		return p.Mail
	}
	return p.UserPrincipalName
}

// Event is a calendar entry.
type Event struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Organizer string    `json:"organizer,omitempty"`
	Location  string    `json:"location,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	WebLink   string    `json:"web_link,omitempty"`
}

// EventDraft collects a new event across the steps of the new-event flow.
// Attendees is never nil once collected; no attendees is an empty list.
type EventDraft struct {
	Subject   string    `mapstructure:"subject" json:"subject"`
	Attendees []string  `mapstructure:"attendees" json:"attendees"`
	Start     time.Time `mapstructure:"start" json:"start"`
	End       time.Time `mapstructure:"end" json:"end"`
}

// Candidate is one resolution of a natural-language date expression.
type Candidate struct {
	// Text is the matched fragment of the input.
	Text string `json:"text"`

	// Timex is the normalized representation, e.g. "2026-10-20T09:00".
	Timex string `json:"timex"`

	Value time.Time `json:"value"`

	HasDate bool `json:"has_date"`
	HasTime bool `json:"has_time"`

	// Now marks the literal "now".
	Now bool `json:"now,omitempty"`
}

// Definite reports whether the candidate pins a calendar date and a time of day.
func (c Candidate) Definite() bool {
	return c.Now || (c.HasDate && c.HasTime)
}
