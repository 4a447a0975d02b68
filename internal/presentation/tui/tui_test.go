package tui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	render := NewRenderer(60)
	out, err := render("**Here's what I heard:**")
	require.NoError(t, err)
	assert.Contains(t, out, "Here's what I heard:")
}

func TestWidthOfNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	assert.Equal(t, defaultWidth, Width(f))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "1.2.3")
}
