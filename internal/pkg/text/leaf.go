package text

import (
	"sort"

	"github.com/SkuldNorniern/niv/internal/niverr"
)

// leafCap is the fixed capacity of a leaf's gap buffer, in bytes. The
// newline index stores uint16 offsets, which bounds leafCap at 65535.
const leafCap = 2048

// leafUsable is the soft fill target (80% of leafCap) BuildFromBytes packs
// leaves to, leaving room for in-place typing before a leaf needs to
// split. Splits made while inserting cut at the insert offset instead.
const leafUsable = (leafCap * 80) / 100

// leaf is a fixed-capacity gap buffer: a mutable window of the document
// with a movable, uninitialised gap between gapLo and gapHi. Bytes at
// logical offset >= gapLo are physically stored starting at gapHi.
//
// nlIdx holds the logical offsets of every 0x0A byte currently in the
// leaf, strictly increasing. It is maintained incrementally by insert and
// delete rather than rescanned, so total_lines() stays O(log N) at the
// rope level.
type leaf struct {
	buf   [leafCap]byte
	gapLo uint16
	gapHi uint16
	nlIdx []uint16
}

func newLeaf() *leaf {
	return &leaf{gapLo: 0, gapHi: leafCap}
}

func (l *leaf) gapSize() int { return int(l.gapHi) - int(l.gapLo) }

func (l *leaf) byteLen() int { return int(l.gapLo) + (leafCap - int(l.gapHi)) }

// moveGapTo slides the gap so it starts at logical offset off. It is a
// memmove of at most leafCap bytes and a no-op when the gap is already
// there.
func (l *leaf) moveGapTo(off int) {
	gl, gh := int(l.gapLo), int(l.gapHi)
	switch {
	case off < gl:
		n := gl - off
		copy(l.buf[gh-n:gh], l.buf[off:gl])
		l.gapLo, l.gapHi = uint16(off), uint16(gh-n)
	case off > gl:
		n := off - gl
		copy(l.buf[gl:gl+n], l.buf[gh:gh+n])
		l.gapLo, l.gapHi = uint16(off), uint16(gh+n)
	}
}

// partitionPointNL returns the index of the first entry in nlIdx that is
// >= at (the sorted insertion point).
func (l *leaf) partitionPointNL(at int) int {
	return sort.Search(len(l.nlIdx), func(i int) bool { return int(l.nlIdx[i]) >= at })
}

func (l *leaf) insertNewlineIndices(at int, data []byte) {
	if len(data) == 0 {
		return
	}
	var newPositions []uint16
	for i, b := range data {
		if b == '\n' {
			pos := at + i
			if pos <= 0xFFFF {
				newPositions = append(newPositions, uint16(pos))
			}
		}
	}
	insertAt := l.partitionPointNL(at)
	added := len(data)
	for i := insertAt; i < len(l.nlIdx); i++ {
		l.nlIdx[i] += uint16(added)
	}
	if len(newPositions) == 0 {
		return
	}
	merged := make([]uint16, 0, len(l.nlIdx)+len(newPositions))
	merged = append(merged, l.nlIdx[:insertAt]...)
	merged = append(merged, newPositions...)
	merged = append(merged, l.nlIdx[insertAt:]...)
	l.nlIdx = merged
}

func (l *leaf) removeNewlineIndicesInRange(start, end int) {
	if start >= end {
		return
	}
	startI := l.partitionPointNL(start)
	endI := l.partitionPointNL(end)
	removed := end - start
	rest := append([]uint16{}, l.nlIdx[endI:]...)
	for i := range rest {
		rest[i] -= uint16(removed)
	}
	l.nlIdx = append(l.nlIdx[:startI], rest...)
}

// insert copies min(gap, len(data)) bytes of data into the leaf at logical
// offset off, returning the number of bytes actually copied. A short
// count (possibly with niverr.ErrInsufficientSpace semantics signalled by
// copied < len(data)) means the caller must split the leaf and retry with
// the remainder.
func (l *leaf) insert(off int, data []byte) (int, error) {
	if off > l.byteLen() {
		return 0, niverr.ErrInvalidOffset
	}
	if len(data) == 0 {
		return 0, nil
	}
	avail := l.gapSize()
	if avail == 0 {
		return 0, niverr.ErrInsufficientSpace
	}
	toCopy := avail
	if len(data) < toCopy {
		toCopy = len(data)
	}
	l.moveGapTo(off)
	gl := int(l.gapLo)
	copy(l.buf[gl:gl+toCopy], data[:toCopy])
	l.gapLo = uint16(gl + toCopy)
	l.insertNewlineIndices(off, data[:toCopy])
	return toCopy, nil
}

// delete widens the gap to remove up to length bytes starting at off,
// returning the number actually removed. Deleting at off == byteLen with
// any length is a no-op.
func (l *leaf) delete(off, length int) (int, error) {
	curLen := l.byteLen()
	if off > curLen {
		return 0, niverr.ErrInvalidOffset
	}
	if length == 0 {
		return 0, nil
	}
	end := off + length
	if end > curLen {
		end = curLen
	}
	actual := end - off
	if actual <= 0 {
		return 0, nil
	}
	l.moveGapTo(off)
	l.gapHi = uint16(int(l.gapHi) + actual)
	l.removeNewlineIndicesInRange(off, off+actual)
	return actual, nil
}

// readInto copies up to len(out) bytes starting at logical offset off,
// transparently skipping the gap. Reading with off == byteLen returns 0.
func (l *leaf) readInto(off int, out []byte) (int, error) {
	curLen := l.byteLen()
	if off > curLen {
		return 0, niverr.ErrInvalidOffset
	}
	want := len(out)
	if rem := curLen - off; rem < want {
		want = rem
	}
	if want == 0 {
		return 0, nil
	}
	gl, gh := int(l.gapLo), int(l.gapHi)
	if off < gl {
		left := gl - off
		if left > want {
			left = want
		}
		copy(out[:left], l.buf[off:off+left])
		remain := want - left
		if remain > 0 {
			copy(out[left:left+remain], l.buf[gh:gh+remain])
		}
		return want, nil
	}
	phys := off + (gh - gl)
	copy(out[:want], l.buf[phys:phys+want])
	return want, nil
}

// segments returns direct views into the leaf's buffer covering the
// logical range [off, off+n), split around the gap: at most two slices,
// in document order. The views alias live storage and are invalidated
// by any later mutation of the leaf.
func (l *leaf) segments(off, n int) [][]byte {
	if n <= 0 {
		return nil
	}
	gl, gh := int(l.gapLo), int(l.gapHi)
	var segs [][]byte
	if off < gl {
		left := gl - off
		if left > n {
			left = n
		}
		segs = append(segs, l.buf[off:off+left])
		n -= left
		off = gl
	}
	if n > 0 {
		phys := gh + (off - gl)
		segs = append(segs, l.buf[phys:phys+n])
	}
	return segs
}

// numNewlines reports how many 0x0A bytes the leaf currently holds.
func (l *leaf) numNewlines() int { return len(l.nlIdx) }
