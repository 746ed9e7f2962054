// Package gbfio implements the write side's persist-or-drop file
// handling: a uuid-named temp file in the destination directory,
// flushed and fsynced, then atomically swapped into place. Grounded on
// the teacher's cleanup-on-error idiom in file_write.go's Create
// (`defer func() { if cleanupOnError { _ = fw.Close() } }()`).
package gbfio

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/scigolib/gbf/internal/gbferrs"
)

// WriteAtomic writes the concatenation of frames to a temp file
// alongside dst (named with a random UUID so concurrent writers to the
// same destination never collide), fsyncs it, then atomically replaces
// dst. The temp file is removed on any error path.
func WriteAtomic(dst string, frames ...[]byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return gbferrs.IOError("failed to create destination directory", err)
	}

	tmpPath := filepath.Join(dir, ".gbf-"+uuid.New().String()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return gbferrs.IOError("failed to create temp file", err)
	}

	cleanupOnError := true
	defer func() {
		if cleanupOnError {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	for _, frame := range frames {
		if _, err := f.Write(frame); err != nil {
			return gbferrs.IOError("failed to write temp file", err)
		}
	}

	if err := f.Sync(); err != nil {
		return gbferrs.IOError("failed to fsync temp file", err)
	}
	if err := f.Close(); err != nil {
		return gbferrs.IOError("failed to close temp file", err)
	}

	if err := Replace(tmpPath, dst); err != nil {
		return err
	}

	cleanupOnError = false
	return nil
}

// Replace atomically replaces dst with src, falling back to
// delete-then-rename for platforms where os.Rename does not overwrite
// an existing destination.
func Replace(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		_ = os.Remove(dst)
		if err2 := os.Rename(src, dst); err2 != nil {
			return gbferrs.IOError("failed to replace destination file", err2)
		}
	}
	return nil
}
