package ports

import (
	"context"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// SequenceInfo describes a registered sequence for introspection.
type SequenceInfo struct {
	Name    string   `json:"name"`
	Steps   []string `json:"steps"`
	Prompts []string `json:"prompts"`
}

// TurnHandler is the primary interface used by adapters (HTTP, MCP, console)
// to hand inbound turns to the bot.
type TurnHandler interface {
	// Turn processes one inbound turn and returns the outbound messages.
	Turn(ctx context.Context, turn domain.Turn) ([]domain.Message, error)

	// Inspect returns the registered sequences.
	Inspect() []SequenceInfo
}
