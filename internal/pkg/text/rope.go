// Package text implements the storage engine: a red-black tree of
// fixed-capacity gap-buffer leaves exposed as a Rope, the mutable
// in-memory representation every opened document uses.
package text

import "github.com/SkuldNorniern/niv/internal/niverr"

// Rope is a mutable sequence of bytes backed by a red-black tree of
// gap-buffer leaves. A Rope is not safe for concurrent use; callers
// serialize access the same way they would a *bytes.Buffer.
type Rope struct {
	tree *Tree
}

// NewRope returns an empty Rope.
func NewRope() *Rope {
	return &Rope{tree: newTreeArena()}
}

// BuildFromBytes constructs a Rope by packing data into leafUsable-sized
// leaves and linking them left to right, which is both faster and
// better balanced than inserting byte-by-byte into an empty rope.
func BuildFromBytes(data []byte) (*Rope, error) {
	r := NewRope()
	if len(data) == 0 {
		return r, nil
	}
	prev := nilNode
	for off := 0; off < len(data); off += leafUsable {
		end := off + leafUsable
		if end > len(data) {
			end = len(data)
		}
		l := newLeaf()
		if _, err := l.insert(0, data[off:end]); err != nil {
			return nil, err
		}
		id, err := r.tree.insertLeafAfter(prev, l)
		if err != nil {
			return nil, err
		}
		prev = id
	}
	return r, nil
}

// Len reports the total number of bytes in the rope.
func (r *Rope) Len() uint64 {
	if r.tree.isNil(r.tree.root) {
		return 0
	}
	return r.tree.at(r.tree.root).subBytes
}

// TotalLines reports the total number of 0x0A bytes in the rope. A file
// with no trailing newline has one fewer line terminator than display
// lines; callers that need display-line counts add one.
func (r *Rope) TotalLines() uint64 {
	if r.tree.isNil(r.tree.root) {
		return 0
	}
	return r.tree.at(r.tree.root).subLines
}

// Read copies up to len(out) bytes starting at absolute offset off,
// returning the number of bytes copied. off == Len() is valid and
// returns 0 with no error.
func (r *Rope) Read(off uint64, out []byte) (int, error) {
	if len(out) == 0 {
		return 0, nil
	}
	n, localOff, err := r.tree.leafAtByte(off)
	if err != nil {
		return 0, err
	}
	total := 0
	remaining := out
	for total < len(out) && !r.tree.isNil(n) {
		nd := r.tree.at(n)
		got, err := nd.leaf.readInto(int(localOff), remaining)
		if err != nil {
			return total, err
		}
		total += got
		remaining = remaining[got:]
		localOff = 0
		n = r.tree.successor(n)
	}
	return total, nil
}

// Bytes materializes the entire rope contents. Intended for saving and
// for tests; callers working with large documents should prefer Read or
// Slice to avoid a full copy.
func (r *Rope) Bytes() []byte {
	out := make([]byte, r.Len())
	r.Read(0, out)
	return out
}

// Chunk is one contiguous run of bytes yielded by Slice, a direct view
// into a leaf's live buffer. The slice is invalidated by any subsequent
// mutation of the rope and must not be retained past that point.
type Chunk struct {
	Bytes []byte
}

// Slice returns the chunks covering [start, end) in document order
// without copying: each chunk aliases a contiguous run inside some
// leaf's buffer, so a leaf whose gap bisects the requested range
// contributes two chunks. end is clamped to Len().
func (r *Rope) Slice(start, end uint64) ([]Chunk, error) {
	if end > r.Len() {
		end = r.Len()
	}
	if end <= start {
		return nil, nil
	}
	n, localOff, err := r.tree.leafAtByte(start)
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	remaining := end - start
	off := int(localOff)
	for remaining > 0 && !r.tree.isNil(n) {
		nd := r.tree.at(n)
		avail := nd.leaf.byteLen() - off
		if avail <= 0 {
			n = r.tree.successor(n)
			off = 0
			continue
		}
		take := avail
		if uint64(take) > remaining {
			take = int(remaining)
		}
		for _, seg := range nd.leaf.segments(off, take) {
			chunks = append(chunks, Chunk{Bytes: seg})
		}
		remaining -= uint64(take)
		n = r.tree.successor(n)
		off = 0
	}
	return chunks, nil
}

// InsertAt inserts data at absolute byte offset off, splitting leaves as
// needed. A single call may touch several leaves when data is larger
// than one leaf's capacity; each split creates a sibling holding the
// overflow and links it into the tree immediately after the original.
func (r *Rope) InsertAt(off uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if off > r.Len() {
		return niverr.ErrInvalidOffset
	}
	if r.tree.isNil(r.tree.root) {
		l := newLeaf()
		if _, err := r.tree.insertLeafAfter(nilNode, l); err != nil {
			return err
		}
	}
	n, localOff, err := r.tree.leafAtByte(off)
	if err != nil {
		return err
	}
	if r.tree.isNil(n) {
		n = r.tree.firstNode()
		localOff = 0
	}

	remaining := data
	for len(remaining) > 0 {
		nd := r.tree.at(n)
		copied, err := nd.leaf.insert(int(localOff), remaining)
		if err != nil && err != niverr.ErrInsufficientSpace {
			return err
		}
		r.tree.updateAggregatesUpwards(n)
		remaining = remaining[copied:]
		localOff += uint64(copied)

		if len(remaining) == 0 {
			break
		}

		// The leaf ran out of room. Splitting a full leaf at local
		// offset 0 would move the whole leaf into the sibling and make
		// no progress, so that case links a fresh empty leaf before n
		// and resumes there instead.
		if localOff == 0 {
			id, err := r.tree.insertLeafBefore(n, newLeaf())
			if err != nil {
				return err
			}
			n = id
			continue
		}

		// Otherwise split at localOff, moving the tail into a new
		// sibling, then continue inserting at the boundary.
		newNode, err := r.splitLeafAt(n, int(localOff))
		if err != nil {
			return err
		}
		n = newNode
		localOff = 0
	}
	return nil
}

// splitLeafAt moves the bytes at and after localOff in node n's leaf
// into a freshly linked sibling immediately after n, and returns the
// sibling's node index, which is where an in-progress insert should
// resume.
func (r *Rope) splitLeafAt(n nodeIdx, localOff int) (nodeIdx, error) {
	nd := r.tree.at(n)
	oldLeaf := nd.leaf
	tailLen := oldLeaf.byteLen() - localOff
	tail := make([]byte, tailLen)
	oldLeaf.readInto(localOff, tail)
	if _, err := oldLeaf.delete(localOff, tailLen); err != nil {
		return nilNode, err
	}
	r.tree.updateAggregatesUpwards(n)

	newLf := newLeaf()
	if _, err := newLf.insert(0, tail); err != nil {
		return nilNode, err
	}
	return r.tree.insertLeafAfter(n, newLf)
}

// DeleteRange removes [start, end) from the rope. Leaves left empty by
// the deletion are spliced out of the tree; leaves merely underfull are
// left in place, matching the gap buffer's append-friendly design.
func (r *Rope) DeleteRange(start, end uint64) error {
	if end < start {
		return niverr.ErrInvalidOffset
	}
	if end > r.Len() {
		return niverr.ErrInvalidOffset
	}
	if start == end {
		return nil
	}

	n, localOff, err := r.tree.leafAtByte(start)
	if err != nil {
		return err
	}
	remaining := end - start
	for remaining > 0 && !r.tree.isNil(n) {
		nd := r.tree.at(n)
		avail := uint64(nd.leaf.byteLen()) - localOff
		take := avail
		if take > remaining {
			take = remaining
		}
		if take > 0 {
			if _, err := nd.leaf.delete(int(localOff), int(take)); err != nil {
				return err
			}
			r.tree.updateAggregatesUpwards(n)
			remaining -= take
		}
		next := r.tree.successor(n)
		if nd.leaf.byteLen() == 0 {
			r.tree.deleteLeaf(n)
		}
		n = next
		localOff = 0
	}
	return nil
}

// FindFirst returns the absolute byte offset of the first occurrence of
// needle at or after start, or (0, false) if absent. The search
// materializes a sliding window of chunk contents so a needle straddling
// two or more leaves is still found.
func (r *Rope) FindFirst(start uint64, needle []byte) (uint64, bool, error) {
	if len(needle) == 0 {
		return start, start <= r.Len(), nil
	}
	total := r.Len()
	if start >= total {
		return 0, false, nil
	}
	window := make([]byte, 0, len(needle)*2)
	n, localOff, err := r.tree.leafAtByte(start)
	if err != nil {
		return 0, false, err
	}
	windowBase := start
	off := int(localOff)
	for !r.tree.isNil(n) {
		nd := r.tree.at(n)
		chunk := make([]byte, nd.leaf.byteLen()-off)
		nd.leaf.readInto(off, chunk)
		window = append(window, chunk...)

		for len(window) >= len(needle) {
			if matchAt(window, needle, 0) {
				return windowBase, true, nil
			}
			window = window[1:]
			windowBase++
		}
		n = r.tree.successor(n)
		off = 0
	}
	return 0, false, nil
}

func matchAt(haystack, needle []byte, at int) bool {
	if at+len(needle) > len(haystack) {
		return false
	}
	for i := range needle {
		if haystack[at+i] != needle[i] {
			return false
		}
	}
	return true
}

// ReplaceFirst finds the first occurrence of needle at or after start
// and replaces it with replacement, returning the offset where the
// replacement begins, or false if needle was not found. It never
// special-cases a replacement larger than the leaf it lands in: deleting
// then inserting reuses InsertAt's own leaf-splitting retry loop.
func (r *Rope) ReplaceFirst(start uint64, needle, replacement []byte) (uint64, bool, error) {
	at, found, err := r.FindFirst(start, needle)
	if err != nil || !found {
		return 0, false, err
	}
	if err := r.DeleteRange(at, at+uint64(len(needle))); err != nil {
		return 0, false, err
	}
	if err := r.InsertAt(at, replacement); err != nil {
		return 0, false, err
	}
	return at, true, nil
}

// LineStartOffset returns the absolute byte offset of the first byte of
// the given 0-indexed line. Line 0 always starts at offset 0.
func (r *Rope) LineStartOffset(line uint64) (uint64, error) {
	if line == 0 {
		return 0, nil
	}
	target := line - 1
	t := r.tree
	if t.isNil(t.root) || target >= t.at(t.root).subLines {
		return 0, niverr.ErrInvalidOffset
	}
	var byteOffset uint64
	n := t.root
	for {
		nd := t.at(n)
		var leftBytes, leftLines uint64
		if !t.isNil(nd.left) {
			leftBytes = t.at(nd.left).subBytes
			leftLines = t.at(nd.left).subLines
		}
		ownLines := uint64(nd.leaf.numNewlines())
		switch {
		case target < leftLines:
			n = nd.left
		case target < leftLines+ownLines:
			byteOffset += leftBytes
			nlPosInLeaf := uint64(nd.leaf.nlIdx[target-leftLines])
			return byteOffset + nlPosInLeaf + 1, nil
		default:
			byteOffset += leftBytes + uint64(nd.leaf.byteLen())
			target -= leftLines + ownLines
			n = nd.right
		}
	}
}
