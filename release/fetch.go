// Package release fetches the stable release archive and swaps it into the
// active program directory atomically, so a crash mid-rollback never leaves
// a half-extracted tree as the active copy.
package release

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/wardenhq/warden/errors"
)

// Fetch downloads and extracts the stable release from source into a fresh
// staging directory and returns the directory holding the release tree.
//
// source is anything go-getter understands: an https tarball URL, an s3 or
// gcs object, or a local path. Every call downloads fresh; the stable
// release is never cached between rollbacks.
//
// The caller owns the returned directory and should remove cleanupDir when
// done with it (cleanupDir is the staging root, which may be a parent of
// the returned tree).
func Fetch(ctx context.Context, source string, logger *zap.SugaredLogger) (tree string, cleanupDir string, err error) {
	if source == "" {
		return "", "", errors.New("no stable release source configured")
	}

	stagingDir, err := os.MkdirTemp("", "warden-stable-*")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to create staging directory")
	}

	logger.Infow("Fetching stable release",
		"source", source,
		"staging", stagingDir)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     source,
		Dst:     stagingDir,
		Mode:    getter.ClientModeAny,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		os.RemoveAll(stagingDir)
		return "", "", errors.Wrapf(err, "failed to fetch stable release from %s", source)
	}

	tree, err = releaseRoot(stagingDir)
	if err != nil {
		os.RemoveAll(stagingDir)
		return "", "", err
	}

	logger.Debugw("Stable release extracted", "tree", tree)
	return tree, stagingDir, nil
}

// releaseRoot locates the program tree inside a staging directory. Archives
// of a tagged tree commonly extract to a single wrapper directory
// ("agent-stable/"); descend into it so the swap installs the tree itself.
func releaseRoot(stagingDir string) (string, error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return "", errors.Wrap(err, "failed to read staging directory")
	}
	if len(entries) == 0 {
		return "", errors.Wrap(errors.ErrEmptyRelease, "staging directory is empty")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(stagingDir, entries[0].Name()), nil
	}
	return stagingDir, nil
}
