package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// JSONHandler implements IOHandler with JSON lines: each reply batch is one
// array of messages, each input line is a JSON string or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(_ context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return h.Encoder.Encode(msgs)
}

func (h *JSONHandler) Input(_ context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
