// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"path/filepath"
)

// EnsureDir creates the parent directories of path if they do not exist.
// A bare file name needs no directory and is left alone.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteFile writes data to path after ensuring its directory exists.
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
