// Package project locates the repository that owns a test configuration and
// resolves the repository-relative paths it contains.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// MarkerName is the entry whose presence marks a repository root.
const MarkerName = ".git"

// ErrNoRepoRoot is returned when no enclosing repository is found.
var ErrNoRepoRoot = errors.New(".git not found: not inside a repository (or any parent up to the root)")

// FindRootFrom walks up from the given directory until it finds .git.
// Both .git directories and .git files (worktrees, submodules) count.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, MarkerName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoRepoRoot
		}
		dir = parent
	}
}
