package release

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wardenhq/warden/errors"
)

// Swap atomically replaces target with the release tree.
//
// The tree is consumed: it is first moved to a sibling of target (so the
// final step is a same-filesystem rename), then target is renamed aside and
// the staged tree renamed into place. If the final rename fails the aside copy is restored,
// so target is never left missing or half-replaced.
//
// keepPrevious leaves the replaced directory as <target>.prev-<timestamp>;
// otherwise it is removed once the swap has succeeded.
func Swap(tree, target string, keepPrevious bool, logger *zap.SugaredLogger) error {
	target, err := filepath.Abs(target)
	if err != nil {
		return errors.Wrap(err, "failed to resolve target path")
	}

	// Stale staging siblings from an earlier crashed swap must never be
	// mistaken for anything; clear them first.
	removeStale(target+".incoming-*", logger)

	stamp := time.Now().UTC().Format("20060102T150405")
	staged := fmt.Sprintf("%s.incoming-%s", target, stamp)
	if err := renameOrCopy(tree, staged); err != nil {
		os.RemoveAll(staged)
		return errors.Wrap(err, "failed to stage release next to target")
	}

	prev := fmt.Sprintf("%s.prev-%s", target, stamp)
	hadPrevious := false
	if _, err := os.Stat(target); err == nil {
		hadPrevious = true
		if err := os.Rename(target, prev); err != nil {
			os.RemoveAll(staged)
			return errors.Wrap(err, "failed to move current program directory aside")
		}
	}

	if err := os.Rename(staged, target); err != nil {
		// Put the old tree back; better a known-bad active copy than none.
		if hadPrevious {
			if restoreErr := os.Rename(prev, target); restoreErr != nil {
				logger.Errorw("Failed to restore previous program directory",
					"previous", prev,
					"error", restoreErr)
			}
		}
		os.RemoveAll(staged)
		return errors.Wrap(err, "failed to activate staged release")
	}

	if hadPrevious && !keepPrevious {
		if err := os.RemoveAll(prev); err != nil {
			// The swap itself succeeded; a leftover previous tree is noise,
			// not a failure.
			logger.Warnw("Failed to remove previous program directory",
				"previous", prev,
				"error", err)
		}
	}

	logger.Infow("Stable release activated", "target", target)
	return nil
}

// renameOrCopy moves src to dst, falling back to a recursive copy when the
// two live on different filesystems (staging is usually under /tmp).
func renameOrCopy(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyTree(src, dst)
}

// copyTree recursively copies a directory, preserving file modes.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(out, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, out)
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return os.WriteFile(out, data, info.Mode().Perm())
		}
	})
}

// removeStale removes leftover directories matching pattern.
func removeStale(pattern string, logger *zap.SugaredLogger) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	for _, m := range matches {
		logger.Debugw("Removing stale staging directory", "path", m)
		os.RemoveAll(m)
	}
}
