// Package env locates the per-user working directory of recastbind.
package env

import (
	"os"
	"path/filepath"

	"github.com/goplus/recastbind/internal/platform"
)

// WorkDir returns the per-user cache root, <user cache>/.recastbind.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".recastbind"), nil
}

// OutDir returns the default output directory for profile and creates it
// with owner-only permissions.
func OutDir(profile platform.Profile) (string, error) {
	root, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, profile.Key())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
