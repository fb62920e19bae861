package release

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/config"
)

// Installer fetches the stable release and installs it over the program
// directory. It implements the supervisor's Rollbacker.
//
// Rollback is idempotent: every call downloads fresh into a new staging
// directory and re-runs the swap, so running it twice in a row leaves the
// program directory equal to a fresh extraction of the stable archive.
type Installer struct {
	cfg        config.RollbackConfig
	programDir string
	logger     *zap.SugaredLogger
}

// NewInstaller creates an Installer replacing programDir.
func NewInstaller(cfg config.RollbackConfig, programDir string, logger *zap.SugaredLogger) *Installer {
	return &Installer{
		cfg:        cfg,
		programDir: programDir,
		logger:     logger,
	}
}

// Rollback downloads the stable release and atomically swaps it into the
// program directory.
func (i *Installer) Rollback(ctx context.Context) error {
	tree, staging, err := Fetch(ctx, i.cfg.Source, i.logger)
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	if v := Manifest(tree); v != nil {
		i.logger.Infow("Stable release manifest", "version", v.String())
	}

	return Swap(tree, i.programDir, i.cfg.KeepPrevious, i.logger)
}

// Manifest reads the release's VERSION file, if it carries one. A missing
// or unparseable manifest is not an error; it just can't be logged.
func Manifest(tree string) *semver.Version {
	data, err := os.ReadFile(filepath.Join(tree, "VERSION"))
	if err != nil {
		return nil
	}
	v, err := semver.NewVersion(strings.TrimSpace(string(data)))
	if err != nil {
		return nil
	}
	return v
}
