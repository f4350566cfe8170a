// Package files prepares the directories the application writes configuration and logs to.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mozilla-ai/mcpfleet/internal/perms"
)

// EnsureParentDir makes sure the directory containing file exists, creating it with perm when missing.
func EnsureParentDir(file string, perm os.FileMode) error {
	file = strings.TrimSpace(file)
	if file == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	return EnsureDir(filepath.Dir(file), perm)
}

// EnsureRegularDir creates path with regular directory permissions when missing.
func EnsureRegularDir(path string) error {
	return EnsureDir(path, perms.RegularDir)
}

// EnsureSecureDir creates path with owner-only permissions when missing.
func EnsureSecureDir(path string) error {
	return EnsureDir(path, perms.SecureDir)
}

// EnsureDir creates path, and any missing parents, with perm.
// An existing path must be a real directory, symlinks are rejected.
// Newly created directories must not end up with broader permissions than perm.
func EnsureDir(path string, perm os.FileMode) error {
	info, err := os.Lstat(path)
	switch {
	case err == nil:
		return checkDir(path, info)
	case !os.IsNotExist(err):
		return fmt.Errorf("could not stat directory '%s': %w", path, err)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("could not create directory '%s': %w", path, err)
	}

	info, err = os.Lstat(path)
	if err != nil {
		return fmt.Errorf("could not stat directory '%s': %w", path, err)
	}
	if err := checkDir(path, info); err != nil {
		return err
	}

	if !isPermissionAcceptable(info.Mode().Perm(), perm) {
		return fmt.Errorf(
			"incorrect permissions for directory '%s' (%#o, want %#o or more restrictive)",
			path,
			info.Mode().Perm(),
			perm,
		)
	}

	return nil
}

func checkDir(path string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("path '%s' is a symlink, not a directory", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("path '%s' is not a directory", path)
	}
	return nil
}

// isPermissionAcceptable reports whether actual grants nothing that required does not.
func isPermissionAcceptable(actual, required os.FileMode) bool {
	return (actual & ^required) == 0
}
