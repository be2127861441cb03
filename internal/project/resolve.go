package project

import (
	"path/filepath"
	"strings"
)

// Resolver turns paths from a test configuration into host paths.
//
// Inside a repository every configured path is relative to the repository
// root, including paths written with a leading slash, so the same config works
// wherever the repository is checked out. Outside a repository paths are used
// as written.
type Resolver struct {
	Root string // repository root; empty when not inside a repository
}

// NewResolver creates a Resolver rooted at the repository enclosing startDir.
func NewResolver(startDir string) *Resolver {
	root, err := FindRootFrom(startDir)
	if err != nil {
		return &Resolver{}
	}
	return &Resolver{Root: root}
}

// Resolve returns the host path for a configured path.
func (r *Resolver) Resolve(path string) string {
	if r == nil || r.Root == "" || path == "" {
		return path
	}
	return filepath.Join(r.Root, strings.TrimPrefix(filepath.ToSlash(path), "/"))
}
