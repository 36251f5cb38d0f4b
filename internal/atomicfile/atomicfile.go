// Package atomicfile replaces planning documents whole. Readers see either
// the old content or the new content, never a partial write.
package atomicfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"
)

const defaultPerm fs.FileMode = 0644

// BackupPath returns the path of the pre-write copy kept for path.
func BackupPath(path string) string {
	return path + ".bak"
}

// Write replaces path with data. The previous content, if any, is kept at
// BackupPath(path). On failure the original file is left untouched.
func Write(path string, data []byte) error {
	perm := defaultPerm
	prev, err := os.ReadFile(path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(path); statErr == nil {
			perm = info.Mode().Perm()
		}
		if err := replace(BackupPath(path), prev, perm); err != nil {
			return fmt.Errorf("writing backup of %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}
	return replace(path, data, perm)
}

// WriteNoBackup replaces path with data without keeping a backup. Used for
// small coordination files that are rewritten constantly.
func WriteNoBackup(path string, data []byte) error {
	perm := defaultPerm
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return replace(path, data, perm)
}

func replace(path string, data []byte, perm fs.FileMode) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	// atomic.WriteFile creates the temp file 0600; new files need the usual mode.
	return os.Chmod(path, perm)
}
