package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/config"
)

// opts is resolved once per invocation by the root PersistentPreRunE.
var opts cli.Options

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy runs behavior trees described in XML",
	Long: `Canopy loads behavior tree documents, validates them against the node
registry and ticks them to completion. A running tree can be inspected over
HTTP and mirrored to Redis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := cli.LoadConfig(path, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("dir") {
			cfg.TreeDir, _ = cmd.Flags().GetString("dir")
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat, _ = cmd.Flags().GetString("log-format")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		opts.Config = cfg
		opts.Files = args
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Out = cmd.OutOrStdout()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := execute(); err != nil {
		var interrupted *cli.InterruptError
		switch {
		case errors.As(err, &interrupted):
			fmt.Fprintln(os.Stderr, interrupted)
			os.Exit(130)
		case !errors.Is(err, cli.ErrTreeFailed):
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func execute() error {
	ctx, stop := cli.WithInterrupt(context.Background())
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "Configuration file (yaml or json)")
	rootCmd.PersistentFlags().String("dir", "trees", "Directory containing tree documents")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}
