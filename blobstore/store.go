package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading immutable artifact blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that expose their contents
// without copying.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() []byte
}

// Fetcher is an optional interface for Stores that download a whole blob
// more efficiently than ReadAt (e.g. with parallel ranged requests).
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// ReadAll reads the complete contents of a blob into memory.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	if f, ok := s.(Fetcher); ok {
		return f.Fetch(ctx, name)
	}

	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		src := m.Bytes()
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}

	size := b.Size()
	if size < 0 {
		return nil, fmt.Errorf("blobstore: %s: negative size", name)
	}
	out := make([]byte, size)
	n, err := b.ReadAt(out, 0)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	return out[:n], nil
}
