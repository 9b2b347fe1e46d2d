package watch

import (
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"github.com/SkuldNorniern/niv/internal/niverr"
	"github.com/SkuldNorniern/niv/internal/pkg/fileio"
	"github.com/SkuldNorniern/niv/internal/pkg/identity"
	"github.com/SkuldNorniern/niv/internal/pkg/text"
)

// MergeConflict carries everything the caller needs to reconcile a
// Modified event against a buffer with unsaved changes: the buffer's
// current content, what's now on disk, and the base snapshot captured
// at load time, which serves as the common ancestor for a three-way
// merge. The watcher never resolves a conflict itself.
type MergeConflict struct {
	EventID       string
	Path          string
	BufferContent []byte
	DiskContent   []byte
	BaseContent   []byte
	SaveContext   fileio.SaveContext
	DiskIdentity  identity.Identity
}

// Strategy selects how a caller resolves a MergeConflict.
type Strategy int

const (
	// UseBuffer overwrites disk with the buffer's content via fileio.Save.
	UseBuffer Strategy = iota
	// UseDisk discards the buffer's edits and reloads from disk.
	UseDisk
	// KeepBoth writes the buffer to a sibling ".buffer" path and leaves
	// disk untouched, so neither version is lost.
	KeepBoth
	// Manual returns the conflict unresolved for the caller to handle
	// (e.g. present a merge UI).
	Manual
)

// Resolution is the outcome of resolving a MergeConflict.
type Resolution struct {
	Strategy Strategy
	// ReloadedRope is set when Strategy is UseDisk.
	ReloadedRope *text.Rope
	// ReloadedContext is set when Strategy is UseDisk.
	ReloadedContext fileio.SaveContext
	// SidecarPath is set when Strategy is KeepBoth: where the buffer's
	// content was written.
	SidecarPath string
}

// Resolve applies strategy to a conflict. UseBuffer writes through
// fileio.Save and KeepBoth through writeSidecar, both atomically; UseDisk
// re-runs fileio.Load. Manual performs no I/O and returns the conflict
// back to the caller untouched.
func Resolve(c MergeConflict, rope *text.Rope, strategy Strategy, loadCfg fileio.LoadConfig, allowLossyUTF8 bool) (Resolution, error) {
	switch strategy {
	case UseBuffer:
		if _, err := fileio.Save(c.Path, rope, c.SaveContext, allowLossyUTF8); err != nil {
			return Resolution{}, errors.Wrapf(err, "resolve conflict: UseBuffer save %s", c.Path)
		}
		return Resolution{Strategy: UseBuffer}, nil

	case UseDisk:
		result, err := fileio.Load(c.Path, loadCfg)
		if result == nil {
			return Resolution{}, errors.Wrapf(err, "resolve conflict: UseDisk reload %s", c.Path)
		}
		// result is non-nil even when Load refused the file as binary or
		// huge-line (ReadOnly set, Rope nil): surface that the same way
		// a fresh open would, rather than failing the whole resolution.
		return Resolution{
			Strategy:        UseDisk,
			ReloadedRope:    result.Rope,
			ReloadedContext: result.Context,
		}, nil

	case KeepBoth:
		sidecar := c.Path + ".buffer"
		if err := writeSidecar(sidecar, rope); err != nil {
			return Resolution{}, errors.Wrapf(err, "resolve conflict: KeepBoth write %s", sidecar)
		}
		return Resolution{Strategy: KeepBoth, SidecarPath: sidecar}, nil

	case Manual:
		return Resolution{Strategy: Manual}, nil

	default:
		return Resolution{}, errors.Wrapf(niverr.ErrValidation, "unknown merge strategy %d", strategy)
	}
}

// writeSidecar writes rope's content to path via the same
// temp-file-then-rename pattern every other write path in this
// repository uses, so a crash mid-write never leaves a partial
// ".buffer" sidecar at a real path.
func writeSidecar(path string, rope *text.Rope) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", path)
	}
	defer t.Cleanup()
	if _, err := t.Write(rope.Bytes()); err != nil {
		return errors.Wrapf(err, "write temp file for %s", path)
	}
	return t.CloseAtomicallyReplace()
}
