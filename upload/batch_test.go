package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommitKeepsFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "writeups", "my-post")
	b, err := NewBatch(dir)
	require.NoError(t, err)

	require.NoError(t, b.WriteFile("cover.png", pngBytes))
	require.NoError(t, b.WriteFile("image-0.jpg", jpegBytes))
	b.Commit()
	require.NoError(t, b.Abort())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBatchAbortRemovesEverything(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-post")
	b, err := NewBatch(dir)
	require.NoError(t, err)

	require.NoError(t, b.WriteFile("cover.png", pngBytes))
	require.NoError(t, b.Abort())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "aborted batch directory should be gone")
}

func TestBatchRejectsExistingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dup")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	_, err := NewBatch(dir)
	assert.ErrorIs(t, err, ErrDirExists)
}

func TestBatchRejectsTraversalName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "post")
	b, err := NewBatch(dir)
	require.NoError(t, err)
	defer b.Abort()

	err = b.WriteFile("../escape.png", pngBytes)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
