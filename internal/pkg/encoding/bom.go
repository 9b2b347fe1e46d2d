// Package encoding detects and transcodes the byte encodings niv can
// open: UTF-8, UTF-16 (LE/BE), UTF-32 (LE/BE), Windows-1252, Latin-1,
// and Latin-9. Detection runs BOM sniffing first, then a heuristic
// classifier when no BOM is present.
package encoding

// Kind names a detected or declared text encoding.
type Kind int

const (
	UTF8 Kind = iota
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
	Windows1252
	Latin1
	Latin9
)

func (k Kind) String() string {
	switch k {
	case UTF8:
		return "UTF-8"
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	case UTF32LE:
		return "UTF-32LE"
	case UTF32BE:
		return "UTF-32BE"
	case Windows1252:
		return "Windows-1252"
	case Latin1:
		return "Latin-1"
	case Latin9:
		return "Latin-9"
	default:
		return "unknown"
	}
}

// BOMLength returns the byte length of kind's byte-order mark, 0 if
// kind has none.
func (k Kind) BOMLength() int {
	switch k {
	case UTF8:
		return 3
	case UTF16LE, UTF16BE:
		return 2
	case UTF32LE, UTF32BE:
		return 4
	default:
		return 0
	}
}

// DetectBOM inspects the first bytes of data for a known byte-order
// mark, returning the matching Kind and the mark's length. ok is false
// when no BOM matched. UTF-32 patterns are checked before UTF-16 ones,
// since a UTF-32LE BOM (FF FE 00 00) is a superset of the UTF-16LE BOM
// (FF FE) prefix.
func DetectBOM(data []byte) (kind Kind, length int, ok bool) {
	switch {
	case len(data) >= 4 && data[0] == 0xFF && data[1] == 0xFE && data[2] == 0x00 && data[3] == 0x00:
		return UTF32LE, 4, true
	case len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0xFE && data[3] == 0xFF:
		return UTF32BE, 4, true
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return UTF8, 3, true
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return UTF16LE, 2, true
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return UTF16BE, 2, true
	default:
		return UTF8, 0, false
	}
}
