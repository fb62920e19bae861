package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/errors"
	"github.com/wardenhq/warden/logger"
	"github.com/wardenhq/warden/release"
)

// RollbackCmd forces an install of the stable release
var RollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Fetch the stable release and swap it into the program directory",
	Long: `Force a rollback without running the agent.

Downloads the stable release archive, extracts it, and atomically replaces
the program directory. Safe to run repeatedly: every invocation starts from
a fresh download and a fresh staging directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigWithFlags(cmd)
		if err != nil {
			return err
		}

		installer := release.NewInstaller(cfg.Rollback, cfg.Run.ProgramDir, logger.Logger)
		if err := installer.Rollback(context.Background()); err != nil {
			return errors.Wrap(err, "rollback failed")
		}
		return nil
	},
}

func init() {
	addSharedFlags(RollbackCmd)
	RollbackCmd.Flags().Bool("keep-previous", false, "Keep the replaced program directory on disk")
}
