package config

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

// SearchPaths returns the config file search order, in priority:
// $HOME/.niv/config.toml, $HOME/.config/niv/config.toml,
// /etc/niv/config.toml, /usr/local/etc/niv/config.toml, then
// $CWD/.niv.toml, $CWD/niv.toml. The first existing file wins.
func SearchPaths() []string {
	var paths []string

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths,
			filepath.Join(home, ".niv", "config.toml"),
			filepath.Join(home, ".config", "niv", "config.toml"),
		)
	}

	paths = append(paths,
		filepath.Join(string(filepath.Separator), "etc", "niv", "config.toml"),
		filepath.Join(string(filepath.Separator), "usr", "local", "etc", "niv", "config.toml"),
	)

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(cwd, ".niv.toml"),
			filepath.Join(cwd, "niv.toml"),
		)
	}

	return paths
}

// FirstExisting returns the first path in paths that exists on disk, or
// "" if none does.
func FirstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load resolves the search path and parses whichever file is found
// first, returning Default() with no error when nothing is found.
func Load() (Settings, string, error) {
	path := FirstExisting(SearchPaths())
	if path == "" {
		return Default(), "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, path, err
	}
	doc, err := Parse(string(data))
	if err != nil {
		return Settings{}, path, err
	}
	settings, err := FromDocument(doc)
	if err != nil {
		return Settings{}, path, err
	}
	return settings, path, nil
}

// ToDocument flattens Settings back into a Document, merging its
// Custom bag so unknown keys round-trip verbatim.
func ToDocument(s Settings) Document {
	doc := make(Document, len(s.Custom)+16)
	for k, v := range s.Custom {
		doc[k] = v
	}

	doc["editor.tab_width"] = intValue(int64(s.Editor.TabWidth))
	doc["editor.expand_tab"] = boolValue(s.Editor.ExpandTab)
	doc["editor.line_numbers"] = boolValue(s.Editor.LineNumbers)
	doc["editor.scrolloff"] = intValue(int64(s.Editor.Scrolloff))
	doc["editor.undolevels"] = intValue(int64(s.Editor.UndoLevels))
	doc["editor.auto_indent"] = boolValue(s.Editor.AutoIndent)

	doc["ui.color_scheme"] = stringValue(s.UI.ColorScheme)
	doc["ui.font_size"] = intValue(int64(s.UI.FontSize))
	doc["ui.transparency"] = intValue(int64(s.UI.Transparency))
	doc["ui.status_line"] = boolValue(s.UI.StatusLine)

	doc["extensions.auto_load"] = boolValue(s.Extensions.AutoLoad)
	doc["extensions.allow_network"] = boolValue(s.Extensions.AllowNetwork)
	doc["extensions.update_policy"] = stringValue(s.Extensions.UpdatePolicy.String())
	dirs := make([]Value, len(s.Extensions.Directories))
	for i, d := range s.Extensions.Directories {
		dirs[i] = stringValue(d)
	}
	doc["extensions.directories"] = arrayValue(dirs)

	for k, v := range s.Keybindings {
		doc["keybindings."+k] = stringValue(v)
	}
	return doc
}

// sectionOrder is the order Render writes recognised sections in, for
// readable, deterministic output on save.
var sectionOrder = []string{"editor", "ui", "extensions", "keybindings"}

// Save renders s and writes it to path atomically via temp+rename, the
// same approach a buffer save uses.
func Save(path string, s Settings) error {
	content := Render(ToDocument(s), sectionOrder)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create config dir %s", dir)
	}
	t, err := renameio.TempFile("", path)
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", path)
	}
	defer t.Cleanup()
	if err := t.Chmod(0o644); err != nil {
		return errors.Wrapf(err, "chmod temp file for %s", path)
	}
	if _, err := t.Write([]byte(content)); err != nil {
		return errors.Wrapf(err, "write temp file for %s", path)
	}
	return t.CloseAtomicallyReplace()
}
