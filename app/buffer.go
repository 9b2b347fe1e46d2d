package app

import (
	"github.com/pkg/errors"

	"github.com/SkuldNorniern/niv/internal/niverr"
	"github.com/SkuldNorniern/niv/internal/pkg/fileio"
	"github.com/SkuldNorniern/niv/internal/pkg/identity"
	"github.com/SkuldNorniern/niv/internal/pkg/swap"
	"github.com/SkuldNorniern/niv/internal/pkg/text"
	"github.com/SkuldNorniern/niv/internal/pkg/watch"
)

// Document is an opened buffer: the rope holding its content, the save
// context needed to round-trip it, the base snapshot for three-way
// merge, and whether it arrived read-only (binary, huge-line, or over
// the open-size cutoff).
type Document struct {
	Path     string
	Rope     *text.Rope
	Context  fileio.SaveContext
	ReadOnly bool
	Warnings []string

	// base is the content at load time ("base snapshot
	// taken at load time"), retained for MergeConflict construction.
	base []byte

	editCount int
}

// EditCount reports edits applied since the last save or swap write.
func (d *Document) EditCount() int { return d.editCount }

// Open loads path via fileio.Load and wraps the result as a Document
// ready for editing.
func Open(path string, loadCfg fileio.LoadConfig) (*Document, error) {
	result, err := fileio.Load(path, loadCfg)
	if err != nil && result == nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	doc := &Document{
		Path:     path,
		Rope:     result.Rope,
		Context:  result.Context,
		ReadOnly: result.ReadOnly,
		Warnings: result.Warnings,
	}
	if doc.Rope != nil {
		doc.base = doc.Rope.Bytes()
	}
	return doc, nil
}

// RecoverFromSwap replaces the document's content with a swap file's
// recovered buffer, e.g. after a caller's swap.Manager.HasSwap check
// finds a leftover swap file from a session that never reached a clean
// close. The base snapshot is left at what was actually on disk, so the
// recovered content shows up as dirty the same way any unsaved edit
// would, and a later Save writes it back.
func (d *Document) RecoverFromSwap(content swap.Content) error {
	rope, err := text.BuildFromBytes(content.Buffer)
	if err != nil {
		return errors.Wrapf(err, "rebuild rope from recovered swap for %s", d.Path)
	}
	d.Rope = rope
	d.editCount = content.EditCount
	return nil
}

// Dirty reports whether the document has unsaved edits relative to the
// base snapshot taken at load (or at the last successful save/reload).
func (d *Document) Dirty() bool {
	if d.Rope == nil {
		return false
	}
	if uint64(len(d.base)) != d.Rope.Len() {
		return true
	}
	current := d.Rope.Bytes()
	for i := range current {
		if current[i] != d.base[i] {
			return true
		}
	}
	return false
}

// NoteEdit should be called after every mutation to the document's
// rope, and forwards the edit to mgr so its threshold tracking stays in
// sync. It reports whether the accumulated edits now warrant a periodic
// swap write (see MaybeSwap).
func (d *Document) NoteEdit(mgr *swap.Manager) (dueForSwap bool) {
	d.editCount++
	return mgr.RecordEdit(d.Path)
}

// Save writes the document back to disk atomically via fileio.Save, and
// resets the dirty-tracking base snapshot and edit count on success.
//
// A read-only document (over the open-size cutoff) refuses to save, and
// a file modified externally since load refuses with ErrConflict so the
// caller routes through conflict resolution instead of clobbering the
// disk copy unseen.
func (d *Document) Save(allowLossyUTF8 bool, loadCfg fileio.LoadConfig) (fileio.SaveResult, error) {
	if d.Rope == nil {
		return fileio.SaveResult{}, errors.Errorf("cannot save %s: no content loaded", d.Path)
	}
	if d.ReadOnly {
		return fileio.SaveResult{}, errors.Wrapf(niverr.ErrFileTooLarge, "cannot save read-only buffer %s", d.Path)
	}
	if cur, err := identity.Compute(d.Path, loadCfg.IdentityConfig); err == nil {
		if identity.IsModified(d.Context.Identity, cur) {
			return fileio.SaveResult{}, errors.Wrapf(niverr.ErrConflict, "%s changed on disk since load", d.Path)
		}
	}
	result, err := fileio.Save(d.Path, d.Rope, d.Context, allowLossyUTF8)
	if err != nil {
		return fileio.SaveResult{}, err
	}
	if cur, idErr := identity.Compute(d.Path, loadCfg.IdentityConfig); idErr == nil {
		d.Context.Identity = cur
	}
	d.base = d.Rope.Bytes()
	d.editCount = 0
	return result, nil
}

// HandleWatchEvent implements the Modified-event policy: a
// clean document reloads automatically (AutoReloaded); a dirty one
// produces a MergeConflict for the caller to resolve, never silently.
// Deleted/Created/Renamed events are returned to the caller unopinionated;
// only Modified has special-cased auto-reload semantics.
func (d *Document) HandleWatchEvent(ev watch.Event, loadCfg fileio.LoadConfig) (autoReloaded bool, conflict *watch.MergeConflict, err error) {
	if ev.Kind != watch.Modified {
		return false, nil, nil
	}

	if !d.Dirty() {
		result, loadErr := fileio.Load(d.Path, loadCfg)
		if loadErr != nil && result == nil {
			return false, nil, errors.Wrapf(loadErr, "auto-reload %s", d.Path)
		}
		d.Rope = result.Rope
		d.Context = result.Context
		d.ReadOnly = result.ReadOnly
		d.Warnings = result.Warnings
		if d.Rope != nil {
			d.base = d.Rope.Bytes()
		}
		d.editCount = 0
		return true, nil, nil
	}

	disk, diskErr := fileio.Load(d.Path, loadCfg)
	var diskContent []byte
	if diskErr == nil && disk.Rope != nil {
		diskContent = disk.Rope.Bytes()
	}

	return false, &watch.MergeConflict{
		EventID:       ev.EventID,
		Path:          d.Path,
		BufferContent: d.Rope.Bytes(),
		DiskContent:   diskContent,
		BaseContent:   d.base,
		SaveContext:   d.Context,
		DiskIdentity:  ev.Identity,
	}, nil
}

// MaybeSwap writes a periodic swap file via mgr if the document has
// crossed mgr's edit-count threshold (tracked by a RecordEdit call from
// NoteEdit) or sat idle past its timeout, resetting the edit count on
// success either way.
func (d *Document) MaybeSwap(mgr *swap.Manager, due bool, cursor *swap.Cursor, viewport *swap.Viewport) error {
	if !due && !mgr.IdleDue(d.Path) {
		return nil
	}
	if d.Rope == nil {
		return nil
	}
	if err := mgr.Save(d.Path, d.editCount, cursor, viewport, d.Rope.Bytes()); err != nil {
		return err
	}
	mgr.ResetEditCount(d.Path)
	d.editCount = 0
	return nil
}
