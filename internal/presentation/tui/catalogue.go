package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// Catalogue renders node manifests as markdown: one section per node type
// category, one table row per port.
func Catalogue(manifests []node.Manifest) string {
	groups := map[domain.NodeType][]node.Manifest{}
	for _, m := range manifests {
		groups[m.Type] = append(groups[m.Type], m)
	}

	var sb strings.Builder
	sb.WriteString("# Node catalogue\n")
	for _, t := range []domain.NodeType{
		domain.NodeTypeControl, domain.NodeTypeDecorator, domain.NodeTypeSubTree,
		domain.NodeTypeAction, domain.NodeTypeCondition, domain.NodeTypeUndefined,
	} {
		ms := groups[t]
		if len(ms) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n", t)
		for _, m := range ms {
			fmt.Fprintf(&sb, "\n### `%s`\n", m.ID)
			if m.Description != "" {
				fmt.Fprintf(&sb, "\n%s\n", m.Description)
			}
			names := m.Ports.Names()
			if len(names) == 0 {
				continue
			}
			sb.WriteString("\n| Port | Direction | Default | Description |\n|---|---|---|---|\n")
			for _, name := range names {
				info := m.Ports[name]
				def := ""
				if info.HasDefault {
					def = fmt.Sprintf("`%v`", info.Default)
				}
				fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, info.Direction, def, info.Description)
			}
		}
	}
	return sb.String()
}
