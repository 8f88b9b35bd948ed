package mmap

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// ErrClosed is returned by ReadAt after Close.
var ErrClosed = errors.New("mmap: closed")

// File is a read-only mapping of a whole file.
type File struct {
	mu     sync.RWMutex
	f      *os.File
	data   []byte
	closed bool
}

// Open maps path read-only. Empty files are valid and map to a nil slice.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	data, err := mapFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &File{f: f, data: data}, nil
}

func mapFile(f *os.File) ([]byte, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	switch size := fi.Size(); {
	case size == 0:
		return nil, nil
	case size > math.MaxInt:
		return nil, fmt.Errorf("file too large (%d bytes)", size)
	default:
		return mmap(f, int(size))
	}
}

// Bytes returns the mapping. The slice must not be used after Close.
func (m *File) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// Size is the mapped length.
func (m *File) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.data))
}

// ReadAt copies from the mapping.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.closed:
		return 0, ErrClosed
	case off < 0 || off >= int64(len(m.data)):
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps and closes the file. Subsequent calls return nil.
func (m *File) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if m.data != nil {
		errs = append(errs, munmap(m.data))
		m.data = nil
	}
	errs = append(errs, m.f.Close())
	return errors.Join(errs...)
}
