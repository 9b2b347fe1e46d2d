package config

import (
	"github.com/pkg/errors"

	"github.com/SkuldNorniern/niv/internal/niverr"
)

// UpdatePolicy governs how the extensions section decides to fetch
// extension updates.
type UpdatePolicy int

const (
	UpdateNever UpdatePolicy = iota
	UpdateStable
	UpdateLatest
	UpdatePrompt
)

func parseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch s {
	case "never":
		return UpdateNever, nil
	case "stable":
		return UpdateStable, nil
	case "latest":
		return UpdateLatest, nil
	case "prompt":
		return UpdatePrompt, nil
	default:
		return 0, errors.Errorf("config: unknown extensions.update_policy %q", s)
	}
}

func (p UpdatePolicy) String() string {
	switch p {
	case UpdateNever:
		return "never"
	case UpdateStable:
		return "stable"
	case UpdateLatest:
		return "latest"
	case UpdatePrompt:
		return "prompt"
	default:
		return "stable"
	}
}

// EditorSettings holds the `[editor]` section: the handful of
// vim-like options a modal editor's configuration typically carries.
type EditorSettings struct {
	TabWidth    int
	ExpandTab   bool
	LineNumbers bool
	Scrolloff   int
	UndoLevels  int
	AutoIndent  bool
}

// DefaultEditorSettings returns the built-in editor defaults.
func DefaultEditorSettings() EditorSettings {
	return EditorSettings{
		TabWidth:    4,
		ExpandTab:   true,
		LineNumbers: true,
		Scrolloff:   5,
		UndoLevels:  1000,
		AutoIndent:  true,
	}
}

// UISettings holds the `[ui]` section.
type UISettings struct {
	ColorScheme  string
	FontSize     int
	Transparency int
	StatusLine   bool
}

// DefaultUISettings returns the built-in UI defaults.
func DefaultUISettings() UISettings {
	return UISettings{
		ColorScheme:  "default",
		FontSize:     12,
		Transparency: 0,
		StatusLine:   true,
	}
}

// ExtensionSettings holds the `[extensions]` section.
type ExtensionSettings struct {
	AutoLoad     bool
	AllowNetwork bool
	Directories  []string
	UpdatePolicy UpdatePolicy
}

// DefaultExtensionSettings returns the built-in extension defaults.
func DefaultExtensionSettings() ExtensionSettings {
	return ExtensionSettings{
		AutoLoad:     true,
		AllowNetwork: true,
		UpdatePolicy: UpdateStable,
	}
}

// Settings is the fully parsed, validated configuration: the recognised
// sections as typed structs, a `[keybindings]` bag that round-trips
// arbitrary `mode.key = "action"` entries without interpreting them
// (execution is out of scope), and a Custom bag for every
// other key this version of niv doesn't recognise, preserved verbatim.
type Settings struct {
	Editor      EditorSettings
	UI          UISettings
	Extensions  ExtensionSettings
	Keybindings map[string]string
	Custom      Document
}

// Default returns niv's built-in defaults, used when no config file is
// found on the search path.
func Default() Settings {
	return Settings{
		Editor:      DefaultEditorSettings(),
		UI:          DefaultUISettings(),
		Extensions:  DefaultExtensionSettings(),
		Keybindings: map[string]string{},
		Custom:      Document{},
	}
}

// recognisedSections lists every dotted-key prefix FromDocument
// interprets; every other prefix lands in Custom verbatim.
var recognisedSections = map[string]bool{
	"editor":      true,
	"ui":          true,
	"extensions":  true,
	"keybindings": true,
}

// FromDocument builds validated Settings from a parsed Document,
// starting from Default() so any key the document doesn't set keeps its
// default value. Unknown top-level sections (and unknown keys inside
// recognised sections) are preserved in Custom rather than discarded,
// so a save round-trips them.
func FromDocument(doc Document) (Settings, error) {
	s := Default()

	for key, v := range doc {
		section, sub, hasSection := splitSection(key)
		if !hasSection || !recognisedSections[section] {
			s.Custom[key] = v
			continue
		}

		var err error
		switch section {
		case "editor":
			err = applyEditorKey(&s.Editor, sub, v)
		case "ui":
			err = applyUIKey(&s.UI, sub, v)
		case "extensions":
			err = applyExtensionsKey(&s.Extensions, sub, v)
		case "keybindings":
			str, strErr := v.AsString()
			if strErr != nil {
				err = strErr
				break
			}
			s.Keybindings[sub] = str
		}
		if err != nil {
			// An unrecognised key within a recognised section is kept,
			// not an error: only *known* option values are validated.
			if errors.Is(err, errUnknownKey) {
				s.Custom[key] = v
				continue
			}
			return Settings{}, errors.Wrapf(err, "config key %q", key)
		}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

var errUnknownKey = errors.New("config: unknown key in recognised section")

func splitSection(key string) (section, sub string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}

func applyEditorKey(e *EditorSettings, key string, v Value) error {
	switch key {
	case "tab_width":
		i, err := v.AsInt()
		if err != nil {
			return err
		}
		e.TabWidth = int(i)
	case "expand_tab":
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		e.ExpandTab = b
	case "line_numbers":
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		e.LineNumbers = b
	case "scrolloff":
		i, err := v.AsInt()
		if err != nil {
			return err
		}
		e.Scrolloff = int(i)
	case "undolevels":
		i, err := v.AsInt()
		if err != nil {
			return err
		}
		e.UndoLevels = int(i)
	case "auto_indent":
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		e.AutoIndent = b
	default:
		return errUnknownKey
	}
	return nil
}

func applyUIKey(u *UISettings, key string, v Value) error {
	switch key {
	case "color_scheme":
		s, err := v.AsString()
		if err != nil {
			return err
		}
		u.ColorScheme = s
	case "font_size":
		i, err := v.AsInt()
		if err != nil {
			return err
		}
		u.FontSize = int(i)
	case "transparency":
		i, err := v.AsInt()
		if err != nil {
			return err
		}
		u.Transparency = int(i)
	case "status_line":
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		u.StatusLine = b
	default:
		return errUnknownKey
	}
	return nil
}

func applyExtensionsKey(x *ExtensionSettings, key string, v Value) error {
	switch key {
	case "auto_load":
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		x.AutoLoad = b
	case "allow_network":
		b, err := v.AsBool()
		if err != nil {
			return err
		}
		x.AllowNetwork = b
	case "directories":
		ss, err := v.AsStringSlice()
		if err != nil {
			return err
		}
		x.Directories = ss
	case "update_policy":
		str, err := v.AsString()
		if err != nil {
			return err
		}
		policy, err := parseUpdatePolicy(str)
		if err != nil {
			return err
		}
		x.UpdatePolicy = policy
	default:
		return errUnknownKey
	}
	return nil
}

// Validate enforces the constraints on recognised options:
// tab_width > 0, scrolloff <= 100, and transparency between 0 and 100.
func (s Settings) Validate() error {
	if s.Editor.TabWidth <= 0 {
		return errors.Wrapf(niverr.ErrValidation, "editor.tab_width must be > 0, got %d", s.Editor.TabWidth)
	}
	if s.Editor.Scrolloff > 100 {
		return errors.Wrapf(niverr.ErrValidation, "editor.scrolloff must be <= 100, got %d", s.Editor.Scrolloff)
	}
	if s.UI.Transparency < 0 || s.UI.Transparency > 100 {
		return errors.Wrapf(niverr.ErrValidation, "ui.transparency must be between 0 and 100, got %d", s.UI.Transparency)
	}
	return nil
}
