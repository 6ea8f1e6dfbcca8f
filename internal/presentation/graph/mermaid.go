package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from question nodes.
// Shapes:
// - Start sentinel: ((Circle))
// - Question: [/Parallelogram/]
// - Terminal sentinel: (((Double circle)))
// Every answer becomes a labelled edge; back links are dotted.
func GenerateMermaid(nodes []domain.QuestionNode, entry, terminal string, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	startID := sanitizeMermaidID(domain.StartSentinel)
	endID := sanitizeMermaidID(terminal)

	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", startID, domain.StartSentinel)
	if entry != "" {
		fmt.Fprintf(&sb, "    %s --> %s\n", startID, sanitizeMermaidID(entry))
	}

	usesTerminal := false
	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)
		fmt.Fprintf(&sb, "    %s[/\"%s\"/]\n", safeID, escapeLabel(node.ID))

		for _, a := range node.Answers {
			if a.Next == terminal {
				usesTerminal = true
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(a.Label), sanitizeMermaidID(a.Next))
		}

		if node.Previous != "" && node.Previous != domain.StartSentinel && node.Previous != terminal {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", safeID, sanitizeMermaidID(node.Previous))
		}
	}

	if usesTerminal {
		fmt.Fprintf(&sb, "    %s(((\"%s\")))\n", endID, escapeLabel(terminal))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// OverlayFor derives the overlay of a session: the visited nodes are the
// previous node and the current one.
func OverlayFor(sess *domain.Session) *GraphOverlay {
	if sess == nil || !sess.Started() {
		return nil
	}
	overlay := &GraphOverlay{CurrentNode: sess.CurrentNodeID}
	if sess.PreviousNodeID != "" {
		overlay.VisitedNodes = append(overlay.VisitedNodes, sess.PreviousNodeID)
	}
	return overlay
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var b strings.Builder
	b.Grow(len(id) + 2)
	b.WriteString("n_")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
