package text

import "github.com/SkuldNorniern/niv/internal/niverr"

// nodeIdx indexes into Tree.nodes. The tree is a single growable arena:
// no pointers, so growing the backing slice never invalidates a handle's
// meaning, and the whole structure stays cache-local.
type nodeIdx uint32

// nilNode marks "no child / no parent", the arena equivalent of a nil
// pointer.
const nilNode nodeIdx = ^nodeIdx(0)

type rbColor bool

const (
	red   rbColor = false
	black rbColor = true
)

// node is a red-black tree node over document order. Order is
// maintained structurally (insert-after/-before plus rotations), not by
// comparing keys: there is no key, only position. Each node caches the
// byte and newline totals of its own subtree so offset/line lookups are
// O(log N) instead of O(N).
type node struct {
	left, right, parent nodeIdx
	color               rbColor
	leaf                *leaf
	subBytes            uint64
	subLines            uint64
}

// Tree is a red-black tree of gap-buffer leaves, keyed by document
// order: an in-order traversal yields the document's leaves front to
// back.
type Tree struct {
	nodes []node
	root  nodeIdx
}

func newTreeArena() *Tree {
	return &Tree{root: nilNode}
}

func (t *Tree) isNil(n nodeIdx) bool { return n == nilNode }

func (t *Tree) at(n nodeIdx) *node { return &t.nodes[n] }

func (t *Tree) allocNode(l *leaf) (nodeIdx, error) {
	if uint64(len(t.nodes)) >= uint64(nilNode)-1 {
		return nilNode, niverr.ErrTreeFull
	}
	t.nodes = append(t.nodes, node{
		left: nilNode, right: nilNode, parent: nilNode,
		color: red, leaf: l,
	})
	return nodeIdx(len(t.nodes) - 1), nil
}

// recomputeNodeAggregates recomputes n's cached subtree totals from its
// children and its own leaf, without recursing.
func (t *Tree) recomputeNodeAggregates(n nodeIdx) {
	if t.isNil(n) {
		return
	}
	nd := t.at(n)
	var leftBytes, leftLines, rightBytes, rightLines uint64
	if !t.isNil(nd.left) {
		leftBytes = t.at(nd.left).subBytes
		leftLines = t.at(nd.left).subLines
	}
	if !t.isNil(nd.right) {
		rightBytes = t.at(nd.right).subBytes
		rightLines = t.at(nd.right).subLines
	}
	own := uint64(nd.leaf.byteLen())
	ownLines := uint64(nd.leaf.numNewlines())
	nd.subBytes = leftBytes + own + rightBytes
	nd.subLines = leftLines + ownLines + rightLines
}

// updateAggregatesUpwards recomputes aggregates at n and walks to the
// root. Call after every leaf-buffer mutation, and after a rotation has
// already recomputed the rotated pair bottom-up.
func (t *Tree) updateAggregatesUpwards(n nodeIdx) {
	for !t.isNil(n) {
		t.recomputeNodeAggregates(n)
		n = t.at(n).parent
	}
}

func (t *Tree) leftRotate(x nodeIdx) {
	y := t.at(x).right
	yLeft := t.at(y).left
	t.at(x).right = yLeft
	if !t.isNil(yLeft) {
		t.at(yLeft).parent = x
	}
	xParent := t.at(x).parent
	t.at(y).parent = xParent
	switch {
	case t.isNil(xParent):
		t.root = y
	case x == t.at(xParent).left:
		t.at(xParent).left = y
	default:
		t.at(xParent).right = y
	}
	t.at(y).left = x
	t.at(x).parent = y

	t.recomputeNodeAggregates(x)
	t.recomputeNodeAggregates(y)
	t.updateAggregatesUpwards(t.at(y).parent)
}

func (t *Tree) rightRotate(y nodeIdx) {
	x := t.at(y).left
	xRight := t.at(x).right
	t.at(y).left = xRight
	if !t.isNil(xRight) {
		t.at(xRight).parent = y
	}
	yParent := t.at(y).parent
	t.at(x).parent = yParent
	switch {
	case t.isNil(yParent):
		t.root = x
	case y == t.at(yParent).right:
		t.at(yParent).right = x
	default:
		t.at(yParent).left = x
	}
	t.at(x).right = y
	t.at(y).parent = x

	t.recomputeNodeAggregates(y)
	t.recomputeNodeAggregates(x)
	t.updateAggregatesUpwards(t.at(x).parent)
}

func (t *Tree) colorOf(n nodeIdx) rbColor {
	if t.isNil(n) {
		return black
	}
	return t.at(n).color
}

// insertFixup restores red-black properties after a structural insert.
// Document order is already fixed by whoever attached n, so this is the
// textbook CLRS fixup, unmodified by the lack of keys.
func (t *Tree) insertFixup(n nodeIdx) {
	for n != t.root && t.colorOf(t.at(n).parent) == red {
		p := t.at(n).parent
		g := t.at(p).parent
		if p == t.at(g).left {
			u := t.at(g).right
			if t.colorOf(u) == red {
				t.at(p).color = black
				t.at(u).color = black
				t.at(g).color = red
				n = g
			} else {
				if n == t.at(p).right {
					n = p
					t.leftRotate(n)
				}
				p = t.at(n).parent
				g = t.at(p).parent
				t.at(p).color = black
				t.at(g).color = red
				t.rightRotate(g)
			}
		} else {
			u := t.at(g).left
			if t.colorOf(u) == red {
				t.at(p).color = black
				t.at(u).color = black
				t.at(g).color = red
				n = g
			} else {
				if n == t.at(p).left {
					n = p
					t.rightRotate(n)
				}
				p = t.at(n).parent
				g = t.at(p).parent
				t.at(p).color = black
				t.at(g).color = red
				t.leftRotate(g)
			}
		}
	}
	t.at(t.root).color = black
	t.updateAggregatesUpwards(n)
}

func (t *Tree) minimum(n nodeIdx) nodeIdx {
	if t.isNil(n) {
		return nilNode
	}
	for !t.isNil(t.at(n).left) {
		n = t.at(n).left
	}
	return n
}

func (t *Tree) maximum(n nodeIdx) nodeIdx {
	if t.isNil(n) {
		return nilNode
	}
	for !t.isNil(t.at(n).right) {
		n = t.at(n).right
	}
	return n
}

// successor returns the next node in document order, or nilNode past the
// last leaf.
func (t *Tree) successor(n nodeIdx) nodeIdx {
	if t.isNil(n) {
		return nilNode
	}
	if !t.isNil(t.at(n).right) {
		return t.minimum(t.at(n).right)
	}
	p := t.at(n).parent
	for !t.isNil(p) && n == t.at(p).right {
		n = p
		p = t.at(p).parent
	}
	return p
}

// predecessor returns the previous node in document order.
func (t *Tree) predecessor(n nodeIdx) nodeIdx {
	if t.isNil(n) {
		return nilNode
	}
	if !t.isNil(t.at(n).left) {
		return t.maximum(t.at(n).left)
	}
	p := t.at(n).parent
	for !t.isNil(p) && n == t.at(p).left {
		n = p
		p = t.at(p).parent
	}
	return p
}

func (t *Tree) firstNode() nodeIdx { return t.minimum(t.root) }

// insertLeafAfter links newLeaf immediately after n in document order.
// If the tree is empty, n is ignored and newLeaf becomes the sole node.
// If n is nilNode on a non-empty tree, newLeaf is inserted as the new
// first node.
func (t *Tree) insertLeafAfter(n nodeIdx, newLeaf *leaf) (nodeIdx, error) {
	id, err := t.allocNode(newLeaf)
	if err != nil {
		return nilNode, err
	}
	if t.isNil(t.root) {
		t.root = id
		t.at(id).color = black
		t.recomputeNodeAggregates(id)
		return id, nil
	}
	if t.isNil(n) {
		return t.insertLeafBefore(t.firstNode(), newLeaf)
	}
	if t.isNil(t.at(n).right) {
		t.at(n).right = id
		t.at(id).parent = n
	} else {
		leftmost := t.minimum(t.at(n).right)
		t.at(leftmost).left = id
		t.at(id).parent = leftmost
	}
	t.updateAggregatesUpwards(id)
	t.insertFixup(id)
	return id, nil
}

// insertLeafBefore links newLeaf immediately before n in document order.
func (t *Tree) insertLeafBefore(n nodeIdx, newLeaf *leaf) (nodeIdx, error) {
	id, err := t.allocNode(newLeaf)
	if err != nil {
		return nilNode, err
	}
	if t.isNil(t.root) {
		t.root = id
		t.at(id).color = black
		t.recomputeNodeAggregates(id)
		return id, nil
	}
	if t.isNil(n) {
		n = t.maximum(t.root)
		t.at(n).right = id
		t.at(id).parent = n
		t.updateAggregatesUpwards(id)
		t.insertFixup(id)
		return id, nil
	}
	if t.isNil(t.at(n).left) {
		t.at(n).left = id
		t.at(id).parent = n
	} else {
		rightmost := t.maximum(t.at(n).left)
		t.at(rightmost).right = id
		t.at(id).parent = rightmost
	}
	t.updateAggregatesUpwards(id)
	t.insertFixup(id)
	return id, nil
}

func (t *Tree) transplant(u, v nodeIdx) {
	p := t.at(u).parent
	switch {
	case t.isNil(p):
		t.root = v
	case u == t.at(p).left:
		t.at(p).left = v
	default:
		t.at(p).right = v
	}
	if !t.isNil(v) {
		t.at(v).parent = p
	}
}

// deleteLeaf removes node n from the tree and restores red-black
// balance, CLRS-style. "Leaf" names the document unit stored at n (a
// gap-buffer leaf), not its position in the tree shape.
func (t *Tree) deleteLeaf(n nodeIdx) {
	if t.isNil(n) {
		return
	}
	y := n
	yOriginalColor := t.colorOf(y)
	var x, xParent nodeIdx

	switch {
	case t.isNil(t.at(n).left):
		x = t.at(n).right
		xParent = t.at(n).parent
		t.transplant(n, t.at(n).right)
	case t.isNil(t.at(n).right):
		x = t.at(n).left
		xParent = t.at(n).parent
		t.transplant(n, t.at(n).left)
	default:
		y = t.minimum(t.at(n).right)
		yOriginalColor = t.colorOf(y)
		x = t.at(y).right
		if t.at(y).parent == n {
			xParent = y
		} else {
			xParent = t.at(y).parent
			t.transplant(y, t.at(y).right)
			t.at(y).right = t.at(n).right
			t.at(t.at(y).right).parent = y
		}
		t.transplant(n, y)
		t.at(y).left = t.at(n).left
		t.at(t.at(y).left).parent = y
		t.at(y).color = t.colorOf(n)
		t.recomputeNodeAggregates(y)
	}

	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}
	t.updateAggregatesUpwards(xParent)
	if !t.isNil(y) && y != n {
		t.updateAggregatesUpwards(y)
	}
}

// deleteFixup restores red-black properties after deleteLeaf detaches a
// black node. x may be nilNode, so the walk addresses the tree through
// xParent, the usual CLRS "nil node's parent" trick.
func (t *Tree) deleteFixup(x, xParent nodeIdx) {
	for x != t.root && t.colorOf(x) == black && !t.isNil(xParent) {
		if x == t.at(xParent).left {
			w := t.at(xParent).right
			if t.colorOf(w) == red {
				t.at(w).color = black
				t.at(xParent).color = red
				t.leftRotate(xParent)
				w = t.at(xParent).right
			}
			if t.colorOf(t.at(w).left) == black && t.colorOf(t.at(w).right) == black {
				t.at(w).color = red
				x = xParent
				xParent = t.at(x).parent
			} else {
				if t.colorOf(t.at(w).right) == black {
					if !t.isNil(t.at(w).left) {
						t.at(t.at(w).left).color = black
					}
					t.at(w).color = red
					t.rightRotate(w)
					w = t.at(xParent).right
				}
				t.at(w).color = t.colorOf(xParent)
				t.at(xParent).color = black
				if !t.isNil(t.at(w).right) {
					t.at(t.at(w).right).color = black
				}
				t.leftRotate(xParent)
				x = t.root
				xParent = nilNode
			}
		} else {
			w := t.at(xParent).left
			if t.colorOf(w) == red {
				t.at(w).color = black
				t.at(xParent).color = red
				t.rightRotate(xParent)
				w = t.at(xParent).left
			}
			if t.colorOf(t.at(w).right) == black && t.colorOf(t.at(w).left) == black {
				t.at(w).color = red
				x = xParent
				xParent = t.at(x).parent
			} else {
				if t.colorOf(t.at(w).left) == black {
					if !t.isNil(t.at(w).right) {
						t.at(t.at(w).right).color = black
					}
					t.at(w).color = red
					t.leftRotate(w)
					w = t.at(xParent).left
				}
				t.at(w).color = t.colorOf(xParent)
				t.at(xParent).color = black
				if !t.isNil(t.at(w).left) {
					t.at(t.at(w).left).color = black
				}
				t.rightRotate(xParent)
				x = t.root
				xParent = nilNode
			}
		}
	}
	if !t.isNil(x) {
		t.at(x).color = black
	}
}

// leafAtByte descends the tree choosing the child that contains
// absolute byte offset off, returning the node and the offset local to
// that node's leaf. off == total length is valid and lands on the last
// leaf with a local offset equal to its length.
func (t *Tree) leafAtByte(off uint64) (nodeIdx, uint64, error) {
	if t.isNil(t.root) {
		if off == 0 {
			return nilNode, 0, nil
		}
		return nilNode, 0, niverr.ErrInvalidOffset
	}
	if off > t.at(t.root).subBytes {
		return nilNode, 0, niverr.ErrInvalidOffset
	}
	n := t.root
	for {
		nd := t.at(n)
		var leftBytes uint64
		if !t.isNil(nd.left) {
			leftBytes = t.at(nd.left).subBytes
		}
		ownLen := uint64(nd.leaf.byteLen())
		switch {
		case off < leftBytes:
			n = nd.left
		case off < leftBytes+ownLen || (off == leftBytes+ownLen && t.isNil(nd.right)):
			return n, off - leftBytes, nil
		default:
			off -= leftBytes + ownLen
			n = nd.right
		}
	}
}

// leafAtLine descends choosing children by cached newline totals,
// returning the node whose leaf contains the given 0-indexed newline
// occurrence, and that newline's index local to the leaf.
func (t *Tree) leafAtLine(line uint64) (nodeIdx, uint64, error) {
	if t.isNil(t.root) {
		return nilNode, 0, niverr.ErrInvalidOffset
	}
	if line >= t.at(t.root).subLines {
		return nilNode, 0, niverr.ErrInvalidOffset
	}
	n := t.root
	for {
		nd := t.at(n)
		var leftLines uint64
		if !t.isNil(nd.left) {
			leftLines = t.at(nd.left).subLines
		}
		ownLines := uint64(nd.leaf.numNewlines())
		switch {
		case line < leftLines:
			n = nd.left
		case line < leftLines+ownLines:
			return n, line - leftLines, nil
		default:
			line -= leftLines + ownLines
			n = nd.right
		}
	}
}
