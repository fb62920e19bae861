package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/logger"
	"github.com/wardenhq/warden/timelimit"
)

// TimelimitCmd shows the time limit a supervision cycle would use
var TimelimitCmd = &cobra.Command{
	Use:   "timelimit",
	Short: "Show the resolved time limit and where it came from",
	Long: `Resolve the time limit exactly as 'warden run' would and print it.

Resolution order: explicit override (WARDEN_TIME_LIMIT or --time-limit),
then the remote time-limit endpoint, then the default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigWithFlags(cmd)
		if err != nil {
			return err
		}

		resolver := timelimit.NewResolver(cfg.TimeLimit, cfg.API.Token, logger.Logger)
		limit, source, err := resolver.Resolve(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("%s (from %s)\n", limit, source)
		return nil
	},
}

func init() {
	TimelimitCmd.Flags().String("time-limit", "", `Time limit override, e.g. "10h"`)
	TimelimitCmd.Flags().String("program-dir", "", "Directory holding the active program tree")
	TimelimitCmd.Flags().String("stable-url", "", "Archive location of the stable release")
}
