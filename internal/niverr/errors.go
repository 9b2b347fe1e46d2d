// Package niverr defines the shared error taxonomy used across niv's
// storage and file I/O layers.
package niverr

import "errors"

// Sentinel errors, compared with errors.Is. Callers that need a path or
// other context wrap these with github.com/pkg/errors.Wrapf.
var (
	// ErrBinaryFile means the content looked binary and was refused as text.
	ErrBinaryFile = errors.New("niv: binary file")

	// ErrHugeLine means a single line exceeded the configured maximum.
	ErrHugeLine = errors.New("niv: line exceeds maximum length")

	// ErrDecode means the bytes were not valid for the declared encoding.
	ErrDecode = errors.New("niv: invalid byte sequence for encoding")

	// ErrFileTooLarge means the file exceeded the configured open size and
	// was opened read-only instead of being refused outright.
	ErrFileTooLarge = errors.New("niv: file too large, opened read-only")

	// ErrInvalidOffset means a caller passed an out-of-range byte offset.
	// Inside the rope this is a logic bug; at the public API it is a
	// recoverable error the caller should clamp and retry.
	ErrInvalidOffset = errors.New("niv: invalid offset")

	// ErrTreeFull means the tree's node arena is exhausted. Fatal for the
	// buffer that hit it.
	ErrTreeFull = errors.New("niv: tree arena exhausted")

	// ErrEncodingLoss means a UTF-8 code point has no representation in
	// the buffer's original single-byte encoding.
	ErrEncodingLoss = errors.New("niv: code point not representable in original encoding")

	// ErrConflict means an external change requires user-mediated merge.
	ErrConflict = errors.New("niv: external change conflicts with unsaved edits")

	// ErrValidation means a config or schema value failed validation.
	ErrValidation = errors.New("niv: validation failed")

	// ErrInsufficientSpace is leaf-internal: an insert could not place all
	// bytes because the gap was smaller than the data. It is never
	// surfaced past the rope, which retries after splitting the leaf.
	ErrInsufficientSpace = errors.New("niv: leaf has insufficient space")
)
