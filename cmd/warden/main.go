package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/cmd/warden/commands"
	"github.com/wardenhq/warden/logger"
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "warden - rollback supervisor for long-running batch agents",
	Long: `warden wraps execution of a long-running batch agent.

It runs the agent under a wall-clock time limit; on a failed or timed-out
run it captures a best-effort diagnostic upload, downloads the last tagged
"stable" release, atomically swaps it into the agent's program directory,
and re-runs the agent with the original arguments. warden's own exit code
is the exit code of the last invocation it performed.

Examples:
  warden run -- python -m agent send --since 2d   # one supervision cycle
  warden rollback                                 # force install of the stable release
  warden timelimit                                # show the resolved time limit`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json", false, "Log as JSON lines instead of console output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.RollbackCmd)
	rootCmd.AddCommand(commands.TimelimitCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Cleanup()
		os.Exit(1)
	}
	logger.Cleanup()
}
