package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [files...]",
	Short: "Export a tree as a Mermaid diagram",
	Long:  `Instantiates the tree and prints a Mermaid flowchart (graph TD) of its nodes, subtrees expanded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		treeID, _ := cmd.Flags().GetString("tree")
		overlay, _ := cmd.Flags().GetBool("status")
		return cli.Graph(opts, treeID, overlay)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("tree", "t", "", "Tree to draw (defaults to the main tree)")
	graphCmd.Flags().Bool("status", false, "Add status color classes")
}
