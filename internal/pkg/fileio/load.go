// Package fileio implements loading and saving: turning a
// path on disk into a *text.Rope plus enough context to round-trip the
// original encoding, EOL convention, BOM, and permissions on save.
package fileio

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/SkuldNorniern/niv/internal/niverr"
	"github.com/SkuldNorniern/niv/internal/pkg/encoding"
	"github.com/SkuldNorniern/niv/internal/pkg/eol"
	"github.com/SkuldNorniern/niv/internal/pkg/identity"
	"github.com/SkuldNorniern/niv/internal/pkg/text"
)

// chunkSize is the CHUNK block size Load streams a file in: 8 MiB reads
// rather than one os.ReadFile, bounding the loader's peak read-syscall
// size independent of how large the file turns out to be.
const chunkSize = 8 << 20

// LoadConfig tunes how Load reads and classifies a file.
type LoadConfig struct {
	MaxLineLength  int
	MaxOpenSize    int64
	EncodingConfig encoding.Config
	IdentityConfig identity.Config
}

// DefaultLoadConfig uses conservative thresholds: a 1MB
// line cap and a 100MB read-only cutoff.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		MaxLineLength:  1 << 20,
		MaxOpenSize:    100 << 20,
		EncodingConfig: encoding.DefaultConfig(),
		IdentityConfig: identity.DefaultConfig(),
	}
}

// SaveContext is the triple (encoding, EOL, BOM length) plus identity
// and permissions, captured at load time so Save can round-trip a file
// whose content was never touched.
type SaveContext struct {
	Encoding    encoding.Kind
	EOL         eol.Kind
	BOMLength   int
	Identity    identity.Identity
	Permissions os.FileMode
}

// LoadResult is everything Load produces: the buffer (nil when the file
// was refused as text), the context needed to save it back, and any
// warnings worth surfacing to the user.
type LoadResult struct {
	Rope     *text.Rope
	Context  SaveContext
	ReadOnly bool
	Warnings []string
}

// Load reads path, classifies its encoding and line endings, and builds
// a Rope holding the LF-normalised UTF-8 content. Binary files and files
// with a huge line are refused as text: Load returns a non-nil result
// with ReadOnly set, a warning, and a nil Rope, together with an error
// wrapping niverr.ErrBinaryFile or niverr.ErrHugeLine.
func Load(path string, cfg LoadConfig) (*LoadResult, error) {
	ident, err := identity.Compute(path, cfg.IdentityConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	raw, err := readChunked(f, info.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	result := &LoadResult{
		Context: SaveContext{
			Identity:    ident,
			Permissions: info.Mode().Perm(),
		},
	}

	bomKind, bomLength, hasBOM := encoding.DetectBOM(raw)
	body := raw
	var detected encoding.Result
	if hasBOM {
		detected = encoding.Result{Kind: bomKind, Confidence: encoding.High}
		body = raw[bomLength:]
	} else {
		detected = encoding.Detect(raw, cfg.EncodingConfig)
	}

	if detected.Binary {
		result.ReadOnly = true
		result.Warnings = append(result.Warnings, "binary file detected, opened read-only")
		return result, errors.Wrapf(niverr.ErrBinaryFile, "%s", path)
	}

	if longestLine(body) > cfg.MaxLineLength {
		result.ReadOnly = true
		result.Warnings = append(result.Warnings, "line exceeds maximum length, opened read-only")
		return result, errors.Wrapf(niverr.ErrHugeLine, "%s", path)
	}

	decoded, err := encoding.Decode(detected.Kind, body)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	eolKind := eol.Detect(decoded)
	normalized := eol.Normalize(decoded)

	if eolKind == eol.Mixed {
		result.Warnings = append(result.Warnings, "mixed line endings normalised to LF")
	}
	if detected.Confidence <= encoding.Low {
		result.Warnings = append(result.Warnings, "encoding detected with low confidence: "+detected.Kind.String())
	}

	if cfg.MaxOpenSize > 0 && info.Size() > cfg.MaxOpenSize {
		result.ReadOnly = true
		result.Warnings = append(result.Warnings, "file exceeds maximum open size, opened read-only")
	}

	rope, err := text.BuildFromBytes(normalized)
	if err != nil {
		return nil, errors.Wrapf(err, "build rope for %s", path)
	}

	result.Rope = rope
	result.Context.Encoding = detected.Kind
	result.Context.EOL = eolKind
	result.Context.BOMLength = bomLength
	return result, nil
}

// readChunked streams f in chunkSize (8 MiB) blocks rather than a
// single whole-file read. sizeHint pre-sizes the accumulating buffer
// when known (0 for an unknown/special file) to avoid repeated
// reallocation as chunks are appended.
func readChunked(f *os.File, sizeHint int64) ([]byte, error) {
	if sizeHint < 0 {
		sizeHint = 0
	}
	out := make([]byte, 0, sizeHint)
	chunk := make([]byte, chunkSize)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			out = append(out, chunk[:n]...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func longestLine(data []byte) int {
	longest, current := 0, 0
	for _, b := range data {
		if b == '\n' {
			if current > longest {
				longest = current
			}
			current = 0
			continue
		}
		current++
	}
	if current > longest {
		longest = current
	}
	return longest
}
