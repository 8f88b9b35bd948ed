package blobstore

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in a map. It is safe for concurrent use and is
// mostly useful for tests and for artifacts generated in process.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

// Put stores a copy of data under name, replacing any previous blob.
func (m *MemoryStore) Put(name string, data []byte) {
	c := bytes.Clone(data)
	if c == nil {
		c = []byte{}
	}

	m.mu.Lock()
	m.blobs[name] = c
	m.mu.Unlock()
}

// Delete removes name. Deleting a missing blob is a no-op.
func (m *MemoryStore) Delete(name string) {
	m.mu.Lock()
	delete(m.blobs, name)
	m.mu.Unlock()
}

// Open returns a reader over the stored bytes.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	m.mu.RLock()
	data, ok := m.blobs[name]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return memoryBlob{Reader: bytes.NewReader(data), data: data}, nil
}

// List returns the sorted names starting with prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.blobs))
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// memoryBlob shares the stored slice; Put never mutates it after insert.
type memoryBlob struct {
	*bytes.Reader
	data []byte
}

func (b memoryBlob) Close() error  { return nil }
func (b memoryBlob) Bytes() []byte { return b.data }
