package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/cli"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the registered node types and their ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Nodes(opts)
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
}
