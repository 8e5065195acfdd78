// Package fileutil writes output files atomically.
package fileutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const ownerReadWrite = 0o600

// WriteFile streams the output of write into a temporary file next to path and renames it
// into place once complete. The temporary file is removed if anything fails, so readers
// never observe a partial image. It returns the size of the written file.
func WriteFile(path string, write func(io.Writer) error) (size int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("creating temporary file: %w", err)
	}

	defer func() {
		tmp.Close() //nolint:errcheck,gosec // already closed on success

		if err != nil {
			os.Remove(tmp.Name()) //nolint:errcheck,gosec // best-effort cleanup
		}
	}()

	buffered := bufio.NewWriter(tmp)

	if err = write(buffered); err != nil {
		return 0, err
	}

	if err = buffered.Flush(); err != nil {
		return 0, fmt.Errorf("writing %q: %w", path, err)
	}

	if err = tmp.Chmod(ownerReadWrite); err != nil {
		return 0, fmt.Errorf("setting file permissions: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temporary file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("renaming output file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", path, err)
	}

	return info.Size(), nil
}

// PreserveTimes copies the modification time of src onto dst.
func PreserveTimes(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("getting file info for %q: %w", src, err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserving timestamps: %w", err)
	}

	return nil
}
