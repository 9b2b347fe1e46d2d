package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAndIsSameFileAcrossRename(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.txt")
	require.NoError(t, os.WriteFile(original, []byte("hello world"), 0o644))

	before, err := Compute(original, DefaultConfig())
	require.NoError(t, err)

	renamed := filepath.Join(dir, "renamed.txt")
	require.NoError(t, os.Rename(original, renamed))

	after, err := Compute(renamed, DefaultConfig())
	require.NoError(t, err)

	// S6-adjacent: a rename within a volume preserves identity.
	assert.True(t, IsSameFile(before, after))
}

func TestIsModifiedDetectsSizeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	before, err := Compute(path, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("a much longer replacement body"), 0o644))
	after, err := Compute(path, DefaultConfig())
	require.NoError(t, err)

	assert.True(t, IsModified(before, after))
}

func TestContentChangedUsesHashWhenAvailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("aaaaaaaaaaaaaaaa"), 0o644))

	before, err := Compute(path, DefaultConfig())
	require.NoError(t, err)
	require.True(t, before.HasHash)

	require.NoError(t, os.WriteFile(path, []byte("bbbbbbbbbbbbbbbb"), 0o644))
	after, err := Compute(path, DefaultConfig())
	require.NoError(t, err)

	assert.True(t, ContentChanged(before, after))
}

func TestComputeWithoutHashDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	id, err := Compute(path, Config{UseFastHash: false})
	require.NoError(t, err)
	assert.False(t, id.HasHash)
}
