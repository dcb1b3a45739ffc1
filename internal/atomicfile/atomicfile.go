// Package atomicfile implements atomic file writes via a temporary file
// plus rename, the way a reader never observes a partially-written file.
// Adapted from mutagen's pkg/filesystem/atomic.go, simplified to a single
// POSIX rename (Hoard targets the same POSIX filesystems its teacher
// does) and without the logger-on-cleanup-failure parameter, since
// cleanup failures here are surfaced to the caller instead of logged.
package atomicfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const temporaryNamePrefix = ".hoard-atomic-write-"

// Write writes data to path atomically: it is written in full to a
// temporary file in the same directory, then renamed into place. Callers
// never observe a partially-written file at path.
func Write(path string, data []byte, permissions os.FileMode) error {
	return CopyFrom(path, bytes.NewReader(data), permissions)
}

// CopyFrom atomically writes src's full contents to path, the streaming
// counterpart to Write for sources too large to hold in memory at once
// (e.g. a hoarded save file): src is copied in full to a temporary file
// in path's directory, then renamed into place. Callers never observe a
// partially-written file at path.
func CopyFrom(path string, src io.Reader, permissions os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("atomicfile: creating parent directory: %w", err)
	}

	temporary, err := os.CreateTemp(dir, temporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("atomicfile: creating temporary file: %w", err)
	}
	cleanup := func() { _ = os.Remove(temporary.Name()) }

	if _, err := io.Copy(temporary, src); err != nil {
		_ = temporary.Close()
		cleanup()
		return fmt.Errorf("atomicfile: writing temporary file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		cleanup()
		return fmt.Errorf("atomicfile: closing temporary file: %w", err)
	}
	if err := os.Chmod(temporary.Name(), permissions); err != nil {
		cleanup()
		return fmt.Errorf("atomicfile: setting permissions: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		cleanup()
		return fmt.Errorf("atomicfile: renaming into place: %w", err)
	}
	return nil
}
