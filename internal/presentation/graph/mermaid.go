package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a node tree. Node shapes
// follow the node type:
// - Control: {{Hexagon}}
// - Decorator: [/Trapezoid\]
// - Condition: ([Stadium])
// - SubTree: [[Subroutine]]
// - Action and others: [Rectangle]
// With overlay set, nodes are also colored by their last status.
func GenerateMermaid(root *domain.NodeSnapshot, overlay bool) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	classes := map[domain.Status][]string{}
	var next int
	var visit func(n *domain.NodeSnapshot) string
	visit = func(n *domain.NodeSnapshot) string {
		id := fmt.Sprintf("n%d", next)
		next++

		opener, closer := shape(n.Type)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label(n), closer)
		classes[n.Status] = append(classes[n.Status], id)

		for _, c := range n.Children {
			cid := visit(c)
			arrow := "-->"
			if n.Type == domain.NodeTypeSubTree {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, cid)
		}
		return id
	}
	visit(root)

	if overlay {
		sb.WriteString("\n    %% Status Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef running fill:#fff59d,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef success fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failure fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#e1f5fe,stroke:#01579b,stroke-dasharray:4,color:#000;\n")
		for _, st := range []domain.Status{domain.StatusRunning, domain.StatusSuccess, domain.StatusFailure, domain.StatusSkipped} {
			if ids := classes[st]; len(ids) > 0 {
				fmt.Fprintf(&sb, "    class %s %s;\n", strings.Join(ids, ","), strings.ToLower(st.String()))
			}
		}
	}
	return sb.String()
}

func shape(t domain.NodeType) (string, string) {
	switch t {
	case domain.NodeTypeControl:
		return "{{", "}}"
	case domain.NodeTypeDecorator:
		return "[/", "\\]"
	case domain.NodeTypeCondition:
		return "([", "])"
	case domain.NodeTypeSubTree:
		return "[[", "]]"
	default:
		return "[", "]"
	}
}

func label(n *domain.NodeSnapshot) string {
	text := n.ID
	if n.Name != "" && n.Name != n.ID {
		text = n.Name + "<br/><i>" + n.ID + "</i>"
	}
	// Mermaid labels are double-quoted.
	return strings.ReplaceAll(text, "\"", "'")
}
