package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/calendarbot/pkg/cards"
	"github.com/aretw0/calendarbot/pkg/domain"
)

// TextHandler implements IOHandler for interactive terminals.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	lines     chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption configures a TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextRenderer sets the markdown renderer.
func WithTextRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler reading r and writing w (stdin and
// stdout when nil).
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// pump reads lines in the background so Input can honour ctx.
func (h *TextHandler) pump() {
	defer close(h.lines)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.lines <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.lines <- inputResult{err: err}
			}
			return
		}
	}
}

func (h *TextHandler) Output(_ context.Context, msgs []domain.Message) error {
	for _, m := range msgs {
		if text := h.render(m); text != "" {
			fmt.Fprintln(h.Writer, text)
		}
		for _, a := range m.Attachments {
			if card, ok := a.Content.(*cards.AdaptiveCard); ok {
				fmt.Fprintln(h.Writer, indent(cards.Summary(card)))
			}
		}
		for i, s := range m.Suggestions {
			fmt.Fprintf(h.Writer, "  [%d] %s\n", i+1, s)
		}
	}
	return nil
}

func (h *TextHandler) render(m domain.Message) string {
	text := m.Text
	if m.Format == domain.FormatMarkdown && h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			text = rendered
		}
	}
	return strings.TrimSpace(text)
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.startOnce.Do(func() {
		h.lines = make(chan inputResult)
		go h.pump()
	})

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.lines:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}

func indent(s string) string {
	return "  | " + strings.ReplaceAll(s, "\n", "\n  | ")
}
