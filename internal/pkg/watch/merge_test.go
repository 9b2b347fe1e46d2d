package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SkuldNorniern/niv/internal/pkg/fileio"
)

func setupConflict(t *testing.T) (MergeConflict, *fileio.LoadResult) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("base content\n"), 0o644))

	loaded, err := fileio.Load(path, fileio.DefaultLoadConfig())
	require.NoError(t, err)
	require.NotNil(t, loaded.Rope)
	require.NoError(t, loaded.Rope.InsertAt(0, []byte("buffer edit: ")))

	require.NoError(t, os.WriteFile(path, []byte("disk content\n"), 0o644))

	return MergeConflict{
		Path:          path,
		BufferContent: loaded.Rope.Bytes(),
		DiskContent:   []byte("disk content\n"),
		BaseContent:   []byte("base content\n"),
		SaveContext:   loaded.Context,
	}, loaded
}

// S6: resolve(UseBuffer) writes the buffer atomically; a subsequent
// read of the file equals the buffer.
func TestResolveUseBufferOverwritesDisk(t *testing.T) {
	conflict, loaded := setupConflict(t)

	res, err := Resolve(conflict, loaded.Rope, UseBuffer, fileio.DefaultLoadConfig(), false)
	require.NoError(t, err)
	assert.Equal(t, UseBuffer, res.Strategy)

	onDisk, err := os.ReadFile(conflict.Path)
	require.NoError(t, err)
	assert.Equal(t, "buffer edit: base content\n", string(onDisk))
}

func TestResolveUseDiskReloads(t *testing.T) {
	conflict, loaded := setupConflict(t)

	res, err := Resolve(conflict, loaded.Rope, UseDisk, fileio.DefaultLoadConfig(), false)
	require.NoError(t, err)
	require.NotNil(t, res.ReloadedRope)
	assert.Equal(t, "disk content\n", string(res.ReloadedRope.Bytes()))
}

func TestResolveKeepBothWritesSidecar(t *testing.T) {
	conflict, loaded := setupConflict(t)

	res, err := Resolve(conflict, loaded.Rope, KeepBoth, fileio.DefaultLoadConfig(), false)
	require.NoError(t, err)
	assert.Equal(t, conflict.Path+".buffer", res.SidecarPath)

	sidecar, err := os.ReadFile(res.SidecarPath)
	require.NoError(t, err)
	assert.Equal(t, "buffer edit: base content\n", string(sidecar))

	onDisk, err := os.ReadFile(conflict.Path)
	require.NoError(t, err)
	assert.Equal(t, "disk content\n", string(onDisk), "KeepBoth leaves disk untouched")
}

func TestResolveManualPerformsNoIO(t *testing.T) {
	conflict, loaded := setupConflict(t)

	res, err := Resolve(conflict, loaded.Rope, Manual, fileio.DefaultLoadConfig(), false)
	require.NoError(t, err)
	assert.Equal(t, Manual, res.Strategy)

	onDisk, err := os.ReadFile(conflict.Path)
	require.NoError(t, err)
	assert.Equal(t, "disk content\n", string(onDisk))
}
