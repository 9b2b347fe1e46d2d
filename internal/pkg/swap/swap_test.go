package swap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c := Content{
		Timestamp: 1234567890,
		EditCount: 7,
		Path:      "/tmp/example.txt",
		Cursor:    &Cursor{Line: 3, Column: 4, Offset: 52},
		Viewport:  &Viewport{Top: 1, Height: 40, HOffset: 0},
		Buffer:    []byte("hello\nworld\n"),
	}
	data := Serialize(c)
	got, err := Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, c.Timestamp, got.Timestamp)
	assert.Equal(t, c.EditCount, got.EditCount)
	assert.Equal(t, c.Path, got.Path)
	assert.Equal(t, c.Cursor, got.Cursor)
	assert.Equal(t, c.Viewport, got.Viewport)
	assert.Equal(t, c.Buffer, got.Buffer)
}

func TestSerializeWithoutCursorOrViewport(t *testing.T) {
	c := Content{Timestamp: 1, EditCount: 0, Path: "", Buffer: []byte("x")}
	data := Serialize(c)
	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Nil(t, got.Cursor)
	assert.Nil(t, got.Viewport)
	assert.Equal(t, []byte("x"), got.Buffer)
}

func TestManagerRecordEditThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SwapDir = t.TempDir()
	cfg.DraftDir = filepath.Join(cfg.SwapDir, "drafts")
	cfg.EditsThreshold = 3
	m, err := New(cfg)
	require.NoError(t, err)

	assert.False(t, m.RecordEdit("/a"))
	assert.False(t, m.RecordEdit("/a"))
	assert.True(t, m.RecordEdit("/a"))
}

func TestManagerSaveAndDiscard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SwapDir = t.TempDir()
	cfg.DraftDir = filepath.Join(cfg.SwapDir, "drafts")
	m, err := New(cfg)
	require.NoError(t, err)

	original := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, m.Save(original, 5, &Cursor{Line: 0, Column: 0, Offset: 0}, nil, []byte("content")))

	swapPath := m.SwapPath(original)
	_, err = os.Stat(swapPath)
	require.NoError(t, err)

	require.NoError(t, m.Discard(original))
	_, err = os.Stat(swapPath)
	assert.True(t, os.IsNotExist(err))
}

func TestManagerSaveDraft(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SwapDir = t.TempDir()
	cfg.DraftDir = filepath.Join(cfg.SwapDir, "drafts")
	m, err := New(cfg)
	require.NoError(t, err)

	path, err := m.SaveDraft([]byte("untitled draft"), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, path, "draft_")
	assert.Contains(t, path, cfg.DraftDir)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("untitled draft"), got.Buffer)
}
