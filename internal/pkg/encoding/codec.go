package encoding

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"github.com/SkuldNorniern/niv/internal/niverr"
)

// textEncoding maps Kind to the golang.org/x/text codec that performs
// its transcoding. UTF-8 has no entry: it needs no transcoding.
func textEncoding(kind Kind) (encoding.Encoding, error) {
	switch kind {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case Windows1252:
		return charmap.Windows1252, nil
	case Latin1:
		return charmap.ISO8859_1, nil
	case Latin9:
		return charmap.ISO8859_15, nil
	default:
		return nil, errors.Errorf("encoding: %s has no transcoder", kind)
	}
}

// Decode transcodes raw (with any BOM already stripped by the caller)
// from kind into UTF-8. UTF-8 input is returned unchanged; it is not
// validated.
func Decode(kind Kind, raw []byte) ([]byte, error) {
	if kind == UTF8 {
		return raw, nil
	}
	enc, err := textEncoding(kind)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, errors.Wrapf(niverr.ErrDecode, "decode as %s: %v", kind, err)
	}
	return out, nil
}

// Encode transcodes UTF-8 content into kind for saving, returning
// niverr.ErrEncodingLoss wrapped with the transcoder's error message when
// a code point has no representation in a single-byte target encoding.
func Encode(kind Kind, content []byte) ([]byte, error) {
	if kind == UTF8 {
		return content, nil
	}
	enc, err := textEncoding(kind)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), content)
	if err != nil {
		return nil, errors.Wrapf(niverr.ErrEncodingLoss, "encode to %s: %v", kind, err)
	}
	return out, nil
}
