package blobstore

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/recgo/internal/mmap"
)

// LocalStore implements Store using the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Root returns the store's directory.
func (s *LocalStore) Root() string { return s.root }

// Open maps the blob read-only.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// List walks the root directory and returns slash-separated blob names.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m *mmap.File
}

func (b *localBlob) ReadAt(p []byte, off int64) (int, error) { return b.m.ReadAt(p, off) }
func (b *localBlob) Close() error                            { return b.m.Close() }
func (b *localBlob) Size() int64                             { return b.m.Size() }
func (b *localBlob) Bytes() []byte                           { return b.m.Bytes() }
