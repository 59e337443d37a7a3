package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/canopy/pkg/domain"
)

// PrintTree writes one line per node, indented by depth, with the node's
// status colored for profile p.
//
//	root (Sequence) RUNNING
//	├── IsReady SUCCESS
//	└── wait (Sleep) RUNNING
func PrintTree(w io.Writer, p termenv.Profile, root *domain.NodeSnapshot) {
	if root == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", nodeLabel(p, root), root.Status.Colored(p))
	printChildren(w, p, root.Children, "")
}

func printChildren(w io.Writer, p termenv.Profile, children []*domain.NodeSnapshot, indent string) {
	for i, c := range children {
		branch, nextIndent := "├── ", indent+"│   "
		if i == len(children)-1 {
			branch, nextIndent = "└── ", indent+"    "
		}
		fmt.Fprintf(w, "%s%s%s %s\n", indent, branch, nodeLabel(p, c), c.Status.Colored(p))
		printChildren(w, p, c.Children, nextIndent)
	}
}

func nodeLabel(p termenv.Profile, n *domain.NodeSnapshot) string {
	if n.Name == "" || n.Name == n.ID {
		return n.ID
	}
	return n.Name + " " + p.String("("+n.ID+")").Faint().String()
}

// FormatBlackboard renders entries as aligned "key = value" lines, in the
// order given.
func FormatBlackboard(keys []string, values map[string]string) string {
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-*s = %s\n", width, k, values[k])
	}
	return sb.String()
}
