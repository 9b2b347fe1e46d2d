package encoding

// latin9SpecificBytes are code points present in ISO-8859-15 (Latin-9)
// at positions that differ from ISO-8859-1 (Latin-1): the euro sign and
// the other characters Latin-9 swapped in over Latin-1.
var latin9SpecificBytes = map[byte]bool{
	0xA4: true, 0xA6: true, 0xA8: true, 0xB4: true,
	0xB8: true, 0xBC: true, 0xBD: true, 0xBE: true,
}

// detectLatinEncoding distinguishes Windows-1252, Latin-9, and Latin-1
// among single-byte encodings once UTF-8 and UTF-16 have been ruled
// out. It reports no match for samples under 10 bytes or lighter on
// bytes >= 0x80 than an 8% ratio: neither is distinctive enough to
// call, and the caller falls back to UTF-8 with Unknown confidence.
func detectLatinEncoding(sample []byte) (Kind, Confidence, bool) {
	if len(sample) < 10 {
		return UTF8, Unknown, false
	}

	var extendedCount, win1252Specific, latin9Specific int
	for _, b := range sample {
		if b >= 0x80 {
			extendedCount++
		}
		if b >= 0x80 && b <= 0x9F {
			win1252Specific++
		}
		if latin9SpecificBytes[b] {
			latin9Specific++
		}
	}

	extendedRatio := float64(extendedCount) / float64(len(sample))
	if extendedRatio < 0.08 {
		return UTF8, Unknown, false
	}

	if win1252Specific > 2 {
		return Windows1252, Medium, true
	}
	if float64(latin9Specific) > float64(extendedCount)/10 {
		return Latin9, Low, true
	}
	return Latin1, Low, true
}
