// Package pathutil provides cross-platform path utilities for lrd.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianly1003/lrd/internal/domain"
)

// ResolveRoot turns a user supplied document root into a cleaned absolute
// path with symlinks resolved, and checks that it is a directory.
func ResolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", resolved)
	}

	return resolved, nil
}

// RelSlash returns path relative to root using forward slashes, the form
// browsers and exclusion patterns expect on every platform.
//
// Examples:
//
//	RelSlash("/project", "/project/src/a.java")  → "src/a.java"
//	RelSlash(`C:\site`, `C:\site\css\main.css`)  → "css/main.css"
func RelSlash(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathOutsideRoot, path)
	}
	return filepath.ToSlash(rel), nil
}

// IsRealDir reports whether path is a directory and not a symlink to one.
func IsRealDir(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
