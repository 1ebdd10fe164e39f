package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExt(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"demo.mp4", "mp4"},
		{"archive.tar.gz", "gz"},
		{"README", "bin"},
		{"", "bin"},
		{".hidden", "hidden"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Ext(tc.name), "Ext(%q)", tc.name)
	}
}

func TestSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := New(root, "/uploads/")
	require.NoError(t, err)

	url, err := store.Save(strings.NewReader("hello"), "demo.mp4", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".mp4"))

	b, err := os.ReadFile(store.FilePath(url))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	require.NoError(t, store.Delete(url))
	_, err = os.Stat(store.FilePath(url))
	assert.True(t, os.IsNotExist(err))

	// deleting again is not an error
	assert.NoError(t, store.Delete(url))
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, err := New(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	first, err := store.Save(strings.NewReader("a"), "tool.zip", 0)
	require.NoError(t, err)
	second, err := store.Save(strings.NewReader("b"), "tool.zip", 0)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSaveEnforcesLimit(t *testing.T) {
	root := t.TempDir()
	store, err := New(root, "/uploads/")
	require.NoError(t, err)

	_, err = store.Save(strings.NewReader(strings.Repeat("x", 20)), "big.zip", 10)
	require.ErrorIs(t, err, ErrFileTooLarge)

	// no partial file left behind
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewFailsWhenRootIsAFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(file, "/uploads/")
	assert.Error(t, err)
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := New("", "/uploads/")
	assert.Error(t, err)
}
