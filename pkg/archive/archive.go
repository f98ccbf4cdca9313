// Package archive is the raw-byte GGPK container handle.
//
// An Archive is deliberately dumb: it opens the file, reports its size, and
// reads byte ranges. It never interprets GGPK records — decoding belongs to
// layers above. An Archive is NOT safe for concurrent use; the session layer
// guarantees that only the dispatcher's worker goroutine ever touches it.
package archive

import (
	"io"
	"os"
	"time"

	"gitlab.com/tozd/go/errors"
)

// headerProbeLen is how many leading bytes Header returns. Enough to cover
// the GGPK record header a caller might want to sniff, without interpreting it.
const headerProbeLen = 16

// 📦 Archive is an open game-archive file.
type Archive struct {
	path string
	file *os.File
	size int64
}

// ℹ️ Info describes an open archive.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// 🏭 Open opens the archive file at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening archive: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Errorf("statting archive: %w", err)
	}
	return &Archive{path: path, file: f, size: fi.Size()}, nil
}

// Path returns the archive's file path.
func (a *Archive) Path() string {
	return a.path
}

// Size returns the archive's size in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Stat returns metadata about the open archive.
func (a *Archive) Stat() (Info, error) {
	fi, err := a.file.Stat()
	if err != nil {
		return Info{}, errors.Errorf("statting archive: %w", err)
	}
	return Info{Path: a.path, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// ReadRange reads length bytes starting at offset. Short files are an error:
// the caller asked for a specific range and gets exactly that range or fails.
func (a *Archive) ReadRange(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, errors.Errorf("invalid range at offset %d length %d", offset, length)
	}
	// Compared this way round so offset+length can never overflow int64.
	if length > a.size-offset {
		return nil, errors.Errorf("range at offset %d length %d exceeds archive size %d", offset, length, a.size)
	}
	buf := make([]byte, length)
	if _, err := a.file.ReadAt(buf, offset); err != nil && err != io.EOF {
		return nil, errors.Errorf("reading range at %d: %w", offset, err)
	}
	return buf, nil
}

// Header returns the archive's leading bytes, uninterpreted.
func (a *Archive) Header() ([]byte, error) {
	n := int64(headerProbeLen)
	if n > a.size {
		n = a.size
	}
	return a.ReadRange(0, n)
}

// Close closes the underlying file.
func (a *Archive) Close() error {
	if err := a.file.Close(); err != nil {
		return errors.Errorf("closing archive: %w", err)
	}
	return nil
}
