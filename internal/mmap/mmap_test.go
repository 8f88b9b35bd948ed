package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadClose(t *testing.T) {
	content := []byte("Hello, Mmap!")
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), m.Size())
	assert.Equal(t, content, m.Bytes())

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "Mmap!", string(buf))

	_, err = m.ReadAt(make([]byte, 10), 100)
	assert.ErrorIs(t, err, io.EOF)

	n, err = m.ReadAt(make([]byte, 10), 7)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	_, err = m.ReadAt(buf, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, int64(0), m.Size())
	assert.Nil(t, m.Bytes())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
