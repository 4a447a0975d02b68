package when_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/calendarbot/pkg/adapters/when"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func recognize(t *testing.T, text string) []domain.Candidate {
	t.Helper()
	cands, err := when.New().Recognize(context.Background(), text, ref)
	require.NoError(t, err)
	return cands
}

func TestRecognizer_DateAndTime(t *testing.T) {
	got := recognize(t, "tomorrow at 9am")
	require.Len(t, got, 1)
	assert.True(t, got[0].Definite())
	assert.Equal(t, 20, got[0].Value.Day())
	assert.Equal(t, 9, got[0].Value.Hour())
}

func TestRecognizer_DateOnly(t *testing.T) {
	got := recognize(t, "tomorrow")
	require.Len(t, got, 1)
	assert.True(t, got[0].HasDate)
	assert.False(t, got[0].HasTime)
	assert.False(t, got[0].Definite())
}

func TestRecognizer_TimeOnly(t *testing.T) {
	got := recognize(t, "9am")
	require.Len(t, got, 1)
	assert.True(t, got[0].HasTime)
	assert.False(t, got[0].HasDate)
	assert.False(t, got[0].Definite())
}

func TestRecognizer_Now(t *testing.T) {
	cands, err := when.New().Recognize(context.Background(), "Now", ref)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.True(t, cands[0].Now)
	assert.True(t, cands[0].Definite())
	assert.Equal(t, ref, cands[0].Value)
}

func TestRecognizer_NoMatch(t *testing.T) {
	assert.Empty(t, recognize(t, "banana"))
	assert.Empty(t, recognize(t, "   "))
}
