package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Tick a tree until it completes",
	Long: `Loads the tree documents (the given files, or every .xml file under --dir)
and ticks the main tree, or --tree, until it returns SUCCESS or FAILURE.
The process exits non-zero when the tree fails or is halted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("interval") {
			opts.Config.TickInterval, _ = flags.GetDuration("interval")
		}
		if flags.Changed("listen") {
			opts.Config.Listen, _ = flags.GetString("listen")
		}
		if flags.Changed("redis") {
			opts.Config.Redis.Addr, _ = flags.GetString("redis")
		}
		if flags.Changed("snapshot") {
			opts.Config.Snapshot, _ = flags.GetString("snapshot")
		}
		if err := opts.Config.Validate(); err != nil {
			return err
		}

		run := cli.RunOptions{Options: opts}
		run.TreeID, _ = flags.GetString("tree")
		run.Set, _ = flags.GetStringArray("set")
		run.Once, _ = flags.GetBool("once")
		run.Quiet, _ = flags.GetBool("quiet")
		return cli.Run(cmd.Context(), run)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("tree", "t", "", "Tree to run (defaults to the main tree)")
	runCmd.Flags().Duration("interval", config.Default().TickInterval, "Pause between ticks while the tree is running (must be positive)")
	runCmd.Flags().String("listen", "", "Serve the inspection API on this address, e.g. :8080")
	runCmd.Flags().String("redis", "", "Mirror the blackboard and events to this Redis address")
	runCmd.Flags().String("snapshot", "", "Write the final tree snapshot to this JSON file")
	runCmd.Flags().StringArrayP("set", "s", nil, "Blackboard entry key=value (repeatable)")
	runCmd.Flags().Bool("once", false, "Tick the root a single time")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner and the final tree")
}
