package flows_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/calendarbot/internal/flows"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidAttendees(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a@b.com;c@d.com", true},
		{"a@b.com", true},
		{"a@b.com;;c@d.com;", true},
		{"a@b.com; c@d.com", true},
		{"", true},
		{"not-an-email", false},
		{"@b.com", false},
		{"a@b.com;nope", false},
		{"Ada <a@b.com>", false},
		{"a@@b.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, flows.ValidAttendees(tt.input))
		})
	}
}

func TestSplitAttendees(t *testing.T) {
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, flows.SplitAttendees("a@b.com;;c@d.com;"))

	none := flows.SplitAttendees("")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestValidEnd(t *testing.T) {
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	at := func(d time.Duration) domain.Candidate {
		return domain.Candidate{Value: start.Add(d), HasDate: true, HasTime: true}
	}

	assert.True(t, flows.ValidEnd(ctx, at(30*time.Minute), start))
	assert.True(t, flows.ValidEnd(ctx, at(time.Second), start.Format(time.RFC3339Nano)))
	assert.False(t, flows.ValidEnd(ctx, at(0), start), "equal instants are rejected")
	assert.False(t, flows.ValidEnd(ctx, at(-time.Hour), start))
	assert.False(t, flows.ValidEnd(ctx, domain.Candidate{Value: start.Add(time.Hour), HasDate: true}, start), "vague")
	assert.False(t, flows.ValidEnd(ctx, at(time.Hour), "garbage"))

	assert.True(t, flows.ValidStart(ctx, domain.Candidate{Now: true}, nil))
	assert.False(t, flows.ValidStart(ctx, domain.Candidate{HasTime: true}, nil))
}

func TestDecodeDraft_AfterStoreRoundTrip(t *testing.T) {
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	values := map[string]any{
		"subject":   "Standup",
		"attendees": []string{},
		"start":     start,
		"end":       start.Add(30 * time.Minute),
		"command":   "add event",
	}

	direct, err := flows.DecodeDraft(values)
	require.NoError(t, err)

	raw, err := json.Marshal(values)
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))

	decoded, err := flows.DecodeDraft(stored)
	require.NoError(t, err)

	assert.Equal(t, "Standup", decoded.Subject)
	assert.Equal(t, []string{}, decoded.Attendees)
	assert.True(t, direct.Start.Equal(decoded.Start))
	assert.True(t, direct.End.Equal(decoded.End))

	missing, err := flows.DecodeDraft(map[string]any{"subject": "x"})
	require.NoError(t, err)
	assert.NotNil(t, missing.Attendees)
}

func TestPlayback(t *testing.T) {
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	md := flows.Playback(domain.EventDraft{Subject: "Standup", Attendees: []string{}, Start: start, End: start.Add(30 * time.Minute)})
	assert.Equal(t, "Here's what I heard:\n\n"+
		"- **Subject:** Standup\n"+
		"- **Attendees:** none\n"+
		"- **Start:** 2026-10-20 09:00\n"+
		"- **End:** 2026-10-20 09:30", md)

	md = flows.Playback(domain.EventDraft{Attendees: []string{"a@b.com", "c@d.com"}})
	assert.Contains(t, md, "- **Attendees:** a@b.com; c@d.com\n")
}
