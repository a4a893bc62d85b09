// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// defaultFileMode applies to files that did not exist before the write.
const defaultFileMode fs.FileMode = 0o644

// WriteFileAtomic replaces path with data. The bytes go to a temp file in the
// same directory, which is synced and then renamed over path, so readers see
// either the old or the new content and never a truncated file. An existing
// file keeps its permission bits.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	mode := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "stat", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &IOError{Op: "create temp file for", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath) // best-effort cleanup of the abandoned temp file
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &IOError{Op: "sync", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: tmpPath, Err: err}
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return &IOError{Op: "chmod", Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	renamed = true

	return nil
}

// readText reads path as text, wrapping failures in an IOError.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}
