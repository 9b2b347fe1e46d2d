package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SkuldNorniern/niv/config"
	"github.com/SkuldNorniern/niv/internal/niverr"
	"github.com/SkuldNorniern/niv/internal/pkg/fileio"
	"github.com/SkuldNorniern/niv/internal/pkg/identity"
	"github.com/SkuldNorniern/niv/internal/pkg/watch"
)

func TestOpenAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc\ndef\n"), 0o644))

	doc, err := Open(path, fileio.DefaultLoadConfig())
	require.NoError(t, err)
	require.NotNil(t, doc.Rope)
	assert.False(t, doc.Dirty())

	require.NoError(t, doc.Rope.InsertAt(3, []byte("!")))
	assert.True(t, doc.Dirty())

	_, err = doc.Save(false, fileio.DefaultLoadConfig())
	require.NoError(t, err)
	assert.False(t, doc.Dirty())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc!\ndef\n", string(data))
}

func TestHandleWatchEventAutoReloadsCleanBuffer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	doc, err := Open(path, fileio.DefaultLoadConfig())
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	ev := watch.Event{Path: path, Kind: watch.Modified, Identity: identity.Identity{}}
	reloaded, conflict, err := doc.HandleWatchEvent(ev, fileio.DefaultLoadConfig())
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Nil(t, conflict)
	assert.Equal(t, "v2", string(doc.Rope.Bytes()))
}

func TestSaveRefusesWhenDiskChangedSinceLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	doc, err := Open(path, fileio.DefaultLoadConfig())
	require.NoError(t, err)
	require.NoError(t, doc.Rope.InsertAt(0, []byte("edit ")))

	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2 written externally"), 0o644))

	_, err = doc.Save(false, fileio.DefaultLoadConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, niverr.ErrConflict))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2 written externally", string(onDisk), "refused save must not touch disk")
}

func TestConfigStoreSnapshotIsIsolated(t *testing.T) {
	s := config.Default()
	s.Keybindings["normal.j"] = "cursor_down"
	store := NewConfigStore(s)

	snap := store.Snapshot()
	snap.Keybindings["normal.j"] = "mutated"
	snap.Editor.TabWidth = 99

	again := store.Snapshot()
	assert.Equal(t, "cursor_down", again.Keybindings["normal.j"])
	assert.NotEqual(t, 99, again.Editor.TabWidth)
}

func TestHandleWatchEventConflictsDirtyBuffer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	doc, err := Open(path, fileio.DefaultLoadConfig())
	require.NoError(t, err)
	require.NoError(t, doc.Rope.InsertAt(2, []byte("-edited")))

	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2-on-disk"), 0o644))

	ev := watch.Event{Path: path, Kind: watch.Modified, Identity: identity.Identity{}}
	reloaded, conflict, err := doc.HandleWatchEvent(ev, fileio.DefaultLoadConfig())
	require.NoError(t, err)
	assert.False(t, reloaded)
	require.NotNil(t, conflict)
	assert.Equal(t, "v1-edited", string(conflict.BufferContent))
	assert.Equal(t, "v2-on-disk", string(conflict.DiskContent))
	assert.Equal(t, "v1", string(conflict.BaseContent))
}
