// Package fileutil provides size-limited file access over an afero filesystem.
package fileutil

import (
	"io"

	"github.com/spf13/afero"

	"github.com/thoreinstein/docvalidate/internal/errors"
)

// DefaultMaxFileSize is the default maximum file size we'll read (10MB).
// Large OpenAPI specifications routinely exceed a megabyte.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// ErrFileTooLarge indicates that a file exceeded the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// ReadFileWithLimit reads a file from fs up to limit bytes.
// A non-positive limit falls back to DefaultMaxFileSize.
// It returns an error wrapping ErrFileTooLarge if the file is larger than the limit.
func ReadFileWithLimit(fs afero.Fs, path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	// Get file info to fail fast if size is already too large
	info, err := f.Stat()
	if err == nil {
		if info.IsDir() {
			return nil, errors.Newf("%s is a directory", path)
		}
		if info.Size() > limit {
			return nil, errors.Wrapf(ErrFileTooLarge, "%d bytes > %d", info.Size(), limit)
		}
	}

	// Read with limit
	r := io.LimitReader(f, limit+1)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "limit %d bytes", limit)
	}

	return data, nil
}

// Exists reports whether path exists on fs and is a regular file.
func Exists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
