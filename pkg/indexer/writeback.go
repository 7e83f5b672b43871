package indexer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gnana997/twtrace/pkg/extract"
)

// WriteBack replaces res.Path with the rewritten source when res changed.
// The new content is written to a temporary file in the same directory and
// renamed over the original, keeping its permissions. It reports whether
// the file was written.
func WriteBack(res *extract.FileResult) (bool, error) {
	if res == nil || !res.Changed || res.Path == "" {
		return false, nil
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", res.Path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(res.Path), "."+filepath.Base(res.Path)+".twtrace-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file for %s: %w", res.Path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(res.Source); err != nil {
		tmp.Close()
		cleanup()
		return false, fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return false, fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		cleanup()
		return false, fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, res.Path); err != nil {
		cleanup()
		return false, fmt.Errorf("failed to replace %s: %w", res.Path, err)
	}
	return true, nil
}
