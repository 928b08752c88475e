package api

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore(t *testing.T) {
	s := &LocalBlobStore{Root: t.TempDir()}

	key, size, sum, err := s.Put("a/b.mmd", strings.NewReader("erDiagram\n"))
	require.NoError(t, err)
	assert.Equal(t, "a/b.mmd", key)
	assert.Equal(t, int64(10), size)
	assert.Len(t, sum, 64)

	rc, err := s.Open(key)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "erDiagram\n", string(b))

	// временных файлов не остаётся
	entries, err := os.ReadDir(filepath.Join(s.Root, "a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Delete(key))
	_, err = s.Open(key)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalBlobStore_BadKeys(t *testing.T) {
	s := &LocalBlobStore{Root: t.TempDir()}
	for _, key := range []string{"", "  ", "..", "../x.mmd", "/etc/passwd"} {
		_, _, _, err := s.Put(key, strings.NewReader("x"))
		assert.ErrorIs(t, err, errBadKey, key)
	}
}
