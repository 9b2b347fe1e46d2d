package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasic(t *testing.T) {
	src := `
# a comment
custom_top_level = "kept"

[editor]
tab_width = 2
expand_tab = true
scrolloff = 5

[ui]
color_scheme = "solarized"
transparency = 10
status_line = false

[extensions]
directories = ["a", "b", "c"]
update_policy = prompt
`
	doc, err := Parse(src)
	require.NoError(t, err)

	tw, err := doc["editor.tab_width"].AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(2), tw)

	et, err := doc["editor.expand_tab"].AsBool()
	require.NoError(t, err)
	assert.True(t, et)

	cs, err := doc["ui.color_scheme"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "solarized", cs)

	dirs, err := doc["extensions.directories"].AsStringSlice()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, dirs)

	custom, err := doc["custom_top_level"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "kept", custom)
}

func TestParseRejectsInvalidLine(t *testing.T) {
	_, err := Parse("[editor]\nnot a valid line without equals\n")
	assert.Error(t, err)
}

func TestParseEmptyArray(t *testing.T) {
	doc, err := Parse("[extensions]\ndirectories = []\n")
	require.NoError(t, err)
	arr, err := doc["extensions.directories"].AsArray()
	require.NoError(t, err)
	assert.Empty(t, arr)
}

func TestFromDocumentAppliesDefaultsAndOverrides(t *testing.T) {
	doc, err := Parse("[editor]\ntab_width = 8\n")
	require.NoError(t, err)
	s, err := FromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, 8, s.Editor.TabWidth)
	assert.True(t, s.Editor.ExpandTab) // untouched key keeps its default
}

func TestFromDocumentValidatesTabWidth(t *testing.T) {
	doc, err := Parse("[editor]\ntab_width = 0\n")
	require.NoError(t, err)
	_, err = FromDocument(doc)
	assert.Error(t, err)
}

func TestFromDocumentValidatesScrolloff(t *testing.T) {
	doc, err := Parse("[editor]\nscrolloff = 101\n")
	require.NoError(t, err)
	_, err = FromDocument(doc)
	assert.Error(t, err)
}

func TestFromDocumentPreservesUnknownKeys(t *testing.T) {
	doc, err := Parse("[editor]\ntab_width = 4\nfuture_option = \"x\"\n\n[mystery]\nkey = 1\n")
	require.NoError(t, err)
	s, err := FromDocument(doc)
	require.NoError(t, err)

	_, ok := s.Custom["editor.future_option"]
	assert.True(t, ok)
	_, ok = s.Custom["mystery.key"]
	assert.True(t, ok)
}

func TestKeybindingsSectionRoundTrips(t *testing.T) {
	doc, err := Parse("[keybindings]\nnormal.j = \"cursor_down\"\n")
	require.NoError(t, err)
	s, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "cursor_down", s.Keybindings["normal.j"])
}

func TestRenderRoundTrip(t *testing.T) {
	s := Default()
	s.Editor.TabWidth = 2
	rendered := Render(ToDocument(s), sectionOrder)

	doc, err := Parse(rendered)
	require.NoError(t, err)
	s2, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, s2.Editor.TabWidth)
}
