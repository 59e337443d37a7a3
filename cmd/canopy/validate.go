package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check tree documents without running them",
	Long: `Parses every document and checks node types, ports, child counts and
subtree references. All problems are reported, not only the first one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(opts)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
