// Package swap implements crash recovery and periodic-save persistence:
// swap files for buffers associated with a path, and draft files for
// untitled ones.
package swap

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

const contentSeparator = "---CONTENT---"

// Cursor is the cursor position recorded in a swap/draft header.
type Cursor struct {
	Line, Column, Offset int
}

// Viewport is the scroll position recorded in a swap/draft header.
type Viewport struct {
	Top, Height, HOffset int
}

// Content is a swap or draft file's full parsed contents.
type Content struct {
	Timestamp int64
	EditCount int
	Path      string
	Cursor    *Cursor
	Viewport  *Viewport
	Buffer    []byte
}

// Config tunes where swap and draft files live and when a periodic
// save triggers.
type Config struct {
	SwapDir        string
	DraftDir       string
	EditsThreshold int
	IdleTimeout    time.Duration
}

// DefaultConfig saves every 10 edits or after 5 seconds idle. Swap files
// live under the user's XDG cache directory rather than the system temp
// dir, so startup crash recovery can still find them after a reboot
// clears /tmp.
func DefaultConfig() Config {
	base := filepath.Join(xdg.CacheHome, "niv_swap")
	return Config{
		SwapDir:        base,
		DraftDir:       filepath.Join(base, "drafts"),
		EditsThreshold: 10,
		IdleTimeout:    5 * time.Second,
	}
}

// Manager tracks per-path edit counts and idle timers and decides when
// a buffer is due for a periodic swap write. It holds no buffer content
// itself: callers pass the current bytes to Save when triggered.
type Manager struct {
	cfg        Config
	editCounts map[string]int
	lastEdit   map[string]time.Time
}

// New creates a Manager and ensures its swap/draft directories exist.
func New(cfg Config) (*Manager, error) {
	if err := os.MkdirAll(cfg.SwapDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create swap dir %s", cfg.SwapDir)
	}
	if err := os.MkdirAll(cfg.DraftDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create draft dir %s", cfg.DraftDir)
	}
	return &Manager{
		cfg:        cfg,
		editCounts: make(map[string]int),
		lastEdit:   make(map[string]time.Time),
	}, nil
}

// SwapPath returns the `.~<basename>` swap path for an edited file,
// living in the manager's swap directory rather than alongside the
// original, keeping these out of the user's working directory rather
// than the historical vi convention of a sibling dotfile.
func (m *Manager) SwapPath(originalPath string) string {
	base := filepath.Base(originalPath)
	return filepath.Join(m.cfg.SwapDir, ".~"+base)
}

// RecordEdit increments path's edit counter and resets its idle clock,
// returning true if the accumulated edits now meet the threshold and a
// periodic save should fire.
func (m *Manager) RecordEdit(path string) (due bool) {
	m.editCounts[path]++
	m.lastEdit[path] = time.Now()
	return m.editCounts[path] >= m.cfg.EditsThreshold
}

// IdleDue reports whether path has been edited at least once and sat
// idle longer than IdleTimeout without a swap write resetting it.
func (m *Manager) IdleDue(path string) bool {
	last, ok := m.lastEdit[path]
	if !ok {
		return false
	}
	return time.Since(last) >= m.cfg.IdleTimeout
}

// ResetEditCount clears path's counter and idle clock after a successful
// swap write or a real save.
func (m *Manager) ResetEditCount(path string) {
	m.editCounts[path] = 0
	delete(m.lastEdit, path)
}

// Save writes content's swap file for originalPath via temp+rename,
// using the same atomic temp-file-then-rename approach as a real save.
func (m *Manager) Save(originalPath string, editCount int, cursor *Cursor, viewport *Viewport, buffer []byte) error {
	content := Content{
		Timestamp: time.Now().Unix(),
		EditCount: editCount,
		Path:      originalPath,
		Cursor:    cursor,
		Viewport:  viewport,
		Buffer:    buffer,
	}
	return writeAtomic(m.SwapPath(originalPath), Serialize(content))
}

// SaveDraft writes a draft file for an untitled buffer and returns its
// path, named draft_<nanos>.txt.
func (m *Manager) SaveDraft(buffer []byte, cursor *Cursor, viewport *Viewport) (string, error) {
	now := time.Now()
	name := fmt.Sprintf("draft_%d.txt", now.UnixNano())
	path := filepath.Join(m.cfg.DraftDir, name)
	content := Content{
		Timestamp: now.Unix(),
		EditCount: 0,
		Path:      "",
		Cursor:    cursor,
		Viewport:  viewport,
		Buffer:    buffer,
	}
	if err := writeAtomic(path, Serialize(content)); err != nil {
		return "", err
	}
	return path, nil
}

// HasSwap reports whether a swap file exists for originalPath, the
// signal that a previous session on this file never reached a clean
// close.
func (m *Manager) HasSwap(originalPath string) (bool, error) {
	_, err := os.Stat(m.SwapPath(originalPath))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Wrapf(err, "stat swap file for %s", originalPath)
	}
}

// RecoverSwap reads and parses the swap file left behind for
// originalPath. It does not remove the file: the caller discards it
// explicitly once the recovered content has been folded into a buffer
// (or a real save has superseded it), so a recovery that's interrupted
// partway leaves the swap file in place for a retry.
func (m *Manager) RecoverSwap(originalPath string) (Content, error) {
	data, err := os.ReadFile(m.SwapPath(originalPath))
	if err != nil {
		return Content{}, errors.Wrapf(err, "read swap file for %s", originalPath)
	}
	return Deserialize(data)
}

// Discard removes the swap file for path, e.g. after a clean close.
func (m *Manager) Discard(originalPath string) error {
	delete(m.editCounts, originalPath)
	delete(m.lastEdit, originalPath)
	err := os.Remove(m.SwapPath(originalPath))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func writeAtomic(path string, data []byte) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", path)
	}
	defer t.Cleanup()
	if _, err := t.Write(data); err != nil {
		return errors.Wrapf(err, "write temp file for %s", path)
	}
	return t.CloseAtomicallyReplace()
}

// Serialize renders content as key=value header lines, a
// ---CONTENT--- separator, then the raw buffer bytes.
func Serialize(c Content) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "timestamp=%d\n", c.Timestamp)
	fmt.Fprintf(&b, "edit_count=%d\n", c.EditCount)
	fmt.Fprintf(&b, "path=%s\n", c.Path)
	if c.Cursor != nil {
		fmt.Fprintf(&b, "cursor=%d,%d,%d\n", c.Cursor.Line, c.Cursor.Column, c.Cursor.Offset)
	} else {
		b.WriteString("cursor=\n")
	}
	if c.Viewport != nil {
		fmt.Fprintf(&b, "viewport=%d,%d,%d\n", c.Viewport.Top, c.Viewport.Height, c.Viewport.HOffset)
	} else {
		b.WriteString("viewport=\n")
	}
	b.WriteString(contentSeparator)
	b.WriteString("\n")

	out := make([]byte, 0, b.Len()+len(c.Buffer))
	out = append(out, []byte(b.String())...)
	out = append(out, c.Buffer...)
	return out
}

// Deserialize parses the format Serialize produces. A malformed header
// line is skipped rather than failing the whole parse: a swap file is a
// recovery aid, not a format that must round-trip perfectly.
func Deserialize(data []byte) (Content, error) {
	sep := []byte(contentSeparator + "\n")
	idx := bytes.Index(data, sep)
	if idx < 0 {
		return Content{}, errors.New("swap: missing " + contentSeparator + " separator")
	}
	header := string(data[:idx])
	body := data[idx+len(sep):]

	var c Content
	c.Buffer = body
	for _, line := range strings.Split(header, "\n") {
		switch {
		case strings.HasPrefix(line, "timestamp="):
			c.Timestamp, _ = strconv.ParseInt(line[len("timestamp="):], 10, 64)
		case strings.HasPrefix(line, "edit_count="):
			c.EditCount, _ = strconv.Atoi(line[len("edit_count="):])
		case strings.HasPrefix(line, "path="):
			c.Path = line[len("path="):]
		case strings.HasPrefix(line, "cursor="):
			if rest := line[len("cursor="):]; rest != "" {
				if cur, ok := parseCursor(rest); ok {
					c.Cursor = &cur
				}
			}
		case strings.HasPrefix(line, "viewport="):
			if rest := line[len("viewport="):]; rest != "" {
				if vp, ok := parseViewport(rest); ok {
					c.Viewport = &vp
				}
			}
		}
	}
	return c, nil
}

func parseCursor(s string) (Cursor, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Cursor{}, false
	}
	line, err1 := strconv.Atoi(parts[0])
	col, err2 := strconv.Atoi(parts[1])
	off, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Cursor{}, false
	}
	return Cursor{Line: line, Column: col, Offset: off}, true
}

func parseViewport(s string) (Viewport, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Viewport{}, false
	}
	top, err1 := strconv.Atoi(parts[0])
	height, err2 := strconv.Atoi(parts[1])
	hoff, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Viewport{}, false
	}
	return Viewport{Top: top, Height: height, HOffset: hoff}, true
}
