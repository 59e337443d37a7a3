package cli

import (
	"fmt"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/node"
)

// Graph prints the Mermaid flowchart of treeID (or the main tree).
func Graph(opts Options, treeID string, overlay bool) error {
	if treeID == "" {
		treeID = opts.Config.MainTree
	}
	eng, err := createEngine(opts)
	if err != nil {
		return err
	}
	tree, err := eng.Instantiate(nil, treeID)
	if err != nil {
		return err
	}
	fmt.Fprint(opts.out(), graph.GenerateMermaid(node.Snapshot(tree.Root()), overlay))
	return nil
}
