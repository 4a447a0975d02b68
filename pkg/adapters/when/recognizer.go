// Package when recognizes English date and time expressions with
// github.com/olebedev/when.
package when

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
	olebedev "github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Recognizer implements ports.Recognizer.
//
// The full parser finds the expression. Two narrower parsers tell which parts
// the user actually said: one knows only clock times, the other only relative
// offsets such as "in 2 hours", which pin both a date and a time.
type Recognizer struct {
	full     *olebedev.Parser
	clock    *olebedev.Parser
	relative *olebedev.Parser
}

// New creates a Recognizer for English input.
func New() *Recognizer {
	full := olebedev.New(nil)
	full.Add(en.All...)
	full.Add(common.All...)

	clock := olebedev.New(nil)
	clock.Add(en.CasualTime(rules.Override), en.Hour(rules.Override), en.HourMinute(rules.Override))

	relative := olebedev.New(nil)
	relative.Add(en.Deadline(rules.Override), en.PastTime(rules.Override))

	return &Recognizer{full: full, clock: clock, relative: relative}
}

// Recognize returns at most one candidate, resolved against ref.
func (r *Recognizer) Recognize(_ context.Context, text string, ref time.Time) ([]domain.Candidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if strings.EqualFold(text, "now") || strings.EqualFold(text, "right now") {
		return []domain.Candidate{{Text: text, Timex: "PRESENT_REF", Value: ref, HasDate: true, HasTime: true, Now: true}}, nil
	}

	match, err := r.full.Parse(text, ref)
	if err != nil {
		return nil, fmt.Errorf("recognize %q: %w", text, err)
	}
	if match == nil {
		return nil, nil
	}

	c := domain.Candidate{Text: strings.TrimSpace(match.Text), Value: match.Time}

	if rel, err := r.relative.Parse(text, ref); err == nil && rel != nil {
		c.HasDate, c.HasTime = true, true
	} else {
		clock, err := r.clock.Parse(text, ref)
		if err != nil {
			return nil, fmt.Errorf("recognize %q: %w", text, err)
		}
		c.HasTime = clock != nil
		c.HasDate = clock == nil || len(c.Text) > len(strings.TrimSpace(clock.Text))
	}

	c.Timex = timex(c)
	return []domain.Candidate{c}, nil
}

func timex(c domain.Candidate) string {
	switch {
	case c.HasDate && c.HasTime:
		return c.Value.Format("2006-01-02T15:04")
	case c.HasDate:
		return c.Value.Format("2006-01-02")
	default:
		return c.Value.Format("T15:04")
	}
}
