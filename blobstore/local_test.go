package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "item_vecs.npy"), []byte("vectors"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "items.json"), []byte("[]"), 0o600))

	store := NewLocalStore(dir)

	t.Run("ReadAll", func(t *testing.T) {
		data, err := ReadAll(ctx, store, "item_vecs.npy")
		require.NoError(t, err)
		assert.Equal(t, "vectors", string(data))
	})

	t.Run("ReadAt", func(t *testing.T) {
		b, err := store.Open(ctx, "item_vecs.npy")
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, int64(7), b.Size())
		buf := make([]byte, 3)
		_, err = b.ReadAt(buf, 4)
		require.NoError(t, err)
		assert.Equal(t, "ors", string(buf))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "missing.npy")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"item_vecs.npy", "sub/items.json"}, names)

		names, err = store.List(ctx, "sub/")
		require.NoError(t, err)
		assert.Equal(t, []string{"sub/items.json"}, names)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("hello")
	store.Put("a/b", data)
	data[0] = 'j'

	got, err := ReadAll(ctx, store, "a/b")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	b, err := store.Open(ctx, "a/b")
	require.NoError(t, err)
	_, err = b.ReadAt(make([]byte, 10), 0)
	assert.ErrorIs(t, err, io.EOF)

	store.Put("a/c", nil)
	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b", "a/c"}, names)

	store.Delete("a/b")
	_, err = store.Open(ctx, "a/b")
	assert.ErrorIs(t, err, ErrNotFound)
}
