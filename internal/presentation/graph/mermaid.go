package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/calendarbot/pkg/ports"
)

// Overlay marks where a session currently is.
type Overlay struct {
	Sequence string
	Step     string
}

// GenerateMermaid renders the registered sequences as a Mermaid flowchart,
// one subgraph per sequence with its steps chained in order.
// Shapes:
// - Entry: ((Circle))
// - Steps waiting on the user (Await*, Confirm): [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(seqs []ports.SequenceInfo, entry string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, seq := range seqs {
		if len(seq.Steps) == 0 {
			continue
		}
		if seq.Name == entry {
			fmt.Fprintf(&sb, "    start((\"start\")) --> %s\n", nodeID(seq.Name, seq.Steps[0]))
		}

		fmt.Fprintf(&sb, "    subgraph %s [\"%s\"]\n", sanitizeMermaidID(seq.Name), seq.Name)
		for i, step := range seq.Steps {
			opener, closer := "[", "]"
			if waitsForUser(step) {
				opener, closer = "[/", "/]"
			}
			fmt.Fprintf(&sb, "        %s%s\"%s\"%s\n", nodeID(seq.Name, step), opener, step, closer)
			if i > 0 {
				fmt.Fprintf(&sb, "        %s --> %s\n", nodeID(seq.Name, seq.Steps[i-1]), nodeID(seq.Name, step))
			}
		}
		sb.WriteString("    end\n")
	}

	if overlay != nil && overlay.Sequence != "" && overlay.Step != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.Sequence, overlay.Step))
	}

	return sb.String()
}

func waitsForUser(step string) bool {
	return strings.HasPrefix(step, "Await") || step == "Confirm"
}

func nodeID(seq, step string) string {
	return sanitizeMermaidID(seq) + "__" + sanitizeMermaidID(step)
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
