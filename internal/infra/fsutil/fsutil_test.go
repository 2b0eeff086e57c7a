package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "file.json")

	require.NoError(t, WriteFileAtomic(path, []byte("content"), DefaultFileMode))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.json")

	require.NoError(t, WriteFileAtomic(path, []byte("old"), DefaultFileMode))
	require.NoError(t, WriteFileAtomic(path, []byte("new"), DefaultFileMode))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFileAtomic(filepath.Join(dir, "file.json"), []byte("x"), DefaultFileMode))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file.json", entries[0].Name())
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(path, []byte("x"), DefaultFileMode))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(dir, "absent")))
	assert.False(t, FileExists(dir))
}
