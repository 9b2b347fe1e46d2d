package fileio

import (
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"github.com/SkuldNorniern/niv/internal/pkg/encoding"
	"github.com/SkuldNorniern/niv/internal/pkg/eol"
	"github.com/SkuldNorniern/niv/internal/pkg/text"
)

// SaveResult reports what Save actually did, for callers that want to
// tell the user whether the atomic path was taken.
type SaveResult struct {
	BytesWritten int
	Atomic       bool
}

// Save restores EOL and the original encoding from ctx, then writes path
// atomically: to a sibling temp file in the same directory, fsynced,
// then renamed over the original. A crash at any point during the write
// leaves either the pre-save file or the fully-written new content at
// path, never a partial file.
//
// allowLossyUTF8 permits falling back to UTF-8 when content has code
// points unrepresentable in ctx.Encoding; without it, such a save fails
// with niverr.ErrEncodingLoss and nothing is written.
func Save(path string, rope *text.Rope, ctx SaveContext, allowLossyUTF8 bool) (SaveResult, error) {
	content := rope.Bytes()
	restored := eol.Restore(content, ctx.EOL)

	encoded, err := encoding.Encode(ctx.Encoding, restored)
	if err != nil {
		if !allowLossyUTF8 {
			return SaveResult{}, err
		}
		encoded = restored
	}

	if ctx.BOMLength > 0 {
		bom := bomBytes(ctx.Encoding)
		out := make([]byte, 0, len(bom)+len(encoded))
		out = append(out, bom...)
		out = append(out, encoded...)
		encoded = out
	}

	t, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return SaveResult{}, errors.Wrapf(err, "create temp file for %s", path)
	}
	defer t.Cleanup()

	perm := ctx.Permissions
	if perm == 0 {
		perm = 0o644
	}
	if err := t.Chmod(perm); err != nil {
		return SaveResult{}, errors.Wrapf(err, "chmod temp file for %s", path)
	}

	if _, err := t.Write(encoded); err != nil {
		return SaveResult{}, errors.Wrapf(err, "write temp file for %s", path)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return SaveResult{}, errors.Wrapf(err, "atomically replace %s", path)
	}

	return SaveResult{BytesWritten: len(encoded), Atomic: true}, nil
}

// bomBytes returns the byte-order mark niv re-attaches on save for
// encodings that use one. UTF-8's 3-byte BOM is included for files
// that were opened with one; niv never adds a BOM that wasn't there.
func bomBytes(kind encoding.Kind) []byte {
	switch kind {
	case encoding.UTF8:
		return []byte{0xEF, 0xBB, 0xBF}
	case encoding.UTF16LE:
		return []byte{0xFF, 0xFE}
	case encoding.UTF16BE:
		return []byte{0xFE, 0xFF}
	case encoding.UTF32LE:
		return []byte{0xFF, 0xFE, 0x00, 0x00}
	case encoding.UTF32BE:
		return []byte{0x00, 0x00, 0xFE, 0xFF}
	default:
		return nil
	}
}
