package text

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRopeBuildFromBytesRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "short", data: []byte("hello world")},
		{name: "exactly one leaf", data: bytes.Repeat([]byte("x"), leafCap)},
		{name: "several leaves", data: bytes.Repeat([]byte("0123456789"), leafCap)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := BuildFromBytes(tc.data)
			require.NoError(t, err)
			assert.Equal(t, uint64(len(tc.data)), r.Len())

			out := make([]byte, len(tc.data))
			n, err := r.Read(0, out)
			require.NoError(t, err)
			assert.Equal(t, len(tc.data), n)
			assert.Equal(t, tc.data, out)
		})
	}
}

// S1: "a\nb\nc\n" -> len 6, total_lines 3, slice(2,5) == "b\nc".
func TestRopeScenarioS1(t *testing.T) {
	r, err := BuildFromBytes([]byte("a\nb\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(6), r.Len())
	assert.Equal(t, uint64(3), r.TotalLines())

	chunks, err := r.Slice(2, 5)
	require.NoError(t, err)
	var got bytes.Buffer
	for _, c := range chunks {
		got.Write(c.Bytes)
	}
	assert.Equal(t, "b\nc", got.String())
}

// S2: build "abc\ndef\n"; replace_first("def", "d\ne\nf") -> len 10,
// total_lines 4, full read "abc\nd\ne\nf\n".
func TestRopeScenarioS2(t *testing.T) {
	r, err := BuildFromBytes([]byte("abc\ndef\n"))
	require.NoError(t, err)

	at, found, err := r.ReplaceFirst(0, []byte("def"), []byte("d\ne\nf"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(4), at)

	assert.Equal(t, uint64(10), r.Len())
	assert.Equal(t, uint64(4), r.TotalLines())
	assert.Equal(t, "abc\nd\ne\nf\n", string(r.Bytes()))
}

func TestRopeInsertAcrossLeafBoundarySplitsLeaf(t *testing.T) {
	base := bytes.Repeat([]byte("a"), leafUsable+10)
	r, err := BuildFromBytes(base)
	require.NoError(t, err)

	insertion := bytes.Repeat([]byte("b"), leafCap*2)
	err = r.InsertAt(5, insertion)
	require.NoError(t, err)

	want := append(append(append([]byte{}, base[:5]...), insertion...), base[5:]...)
	assert.Equal(t, uint64(len(want)), r.Len())
	assert.Equal(t, want, r.Bytes())
}

func TestRopeInsertThenDeleteRestoresDocument(t *testing.T) {
	original := []byte("the quick brown fox jumps over the lazy dog")
	r, err := BuildFromBytes(original)
	require.NoError(t, err)

	inserted := []byte(" EXTRA")
	err = r.InsertAt(9, inserted)
	require.NoError(t, err)
	err = r.DeleteRange(9, 9+uint64(len(inserted)))
	require.NoError(t, err)

	assert.Equal(t, original, r.Bytes())
}

func TestRopeDeleteThenInsertRestoresDocument(t *testing.T) {
	original := []byte("the quick brown fox jumps over the lazy dog")
	r, err := BuildFromBytes(original)
	require.NoError(t, err)

	removed := make([]byte, 6)
	n, err := r.Read(10, removed)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	err = r.DeleteRange(10, 16)
	require.NoError(t, err)
	err = r.InsertAt(10, removed)
	require.NoError(t, err)

	assert.Equal(t, original, r.Bytes())
}

func TestRopeFindFirstAcrossLeafBoundary(t *testing.T) {
	left := strings.Repeat("x", leafUsable-2)
	needle := "NEEDLE"
	right := strings.Repeat("y", leafUsable)
	r, err := BuildFromBytes([]byte(left + needle + right))
	require.NoError(t, err)

	at, found, err := r.FindFirst(0, []byte(needle))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(len(left)), at)
}

func TestRopeFindFirstNotFound(t *testing.T) {
	r, err := BuildFromBytes([]byte("hello world"))
	require.NoError(t, err)
	_, found, err := r.FindFirst(0, []byte("missing"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRopeEmptyDocumentBoundary(t *testing.T) {
	r := NewRope()
	assert.Equal(t, uint64(0), r.Len())
	assert.Equal(t, uint64(0), r.TotalLines())

	err := r.InsertAt(0, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(r.Bytes()))
}

func TestRopeOneLineNoTrailingNewline(t *testing.T) {
	r, err := BuildFromBytes([]byte("no newline here"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.TotalLines())
}

func TestRopeOnlyCRIsNotCountedAsNewline(t *testing.T) {
	r, err := BuildFromBytes([]byte("a\rb\rc"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.TotalLines())
}

func TestRopeLineStartOffset(t *testing.T) {
	r, err := BuildFromBytes([]byte("a\nbb\nccc\n"))
	require.NoError(t, err)

	off0, err := r.LineStartOffset(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), off0)

	off1, err := r.LineStartOffset(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), off1)

	off2, err := r.LineStartOffset(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), off2)
}

// TestRopeRandomEditsMaintainInvariants mirrors a long random edit
// sequence against a plain byte slice and checks, after every mutation,
// that the rope's content matches the model and that the tree still
// satisfies the red-black and cached-aggregate invariants.
func TestRopeRandomEditsMaintainInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	model := []byte(strings.Repeat("the quick brown fox\n", 200))
	r, err := BuildFromBytes(model)
	require.NoError(t, err)

	alphabet := []byte("abcdefghij\nklmnop\nqrst")
	for i := 0; i < 400; i++ {
		if rng.Intn(2) == 0 || len(model) == 0 {
			off := rng.Intn(len(model) + 1)
			n := 1 + rng.Intn(64)
			data := make([]byte, n)
			for j := range data {
				data[j] = alphabet[rng.Intn(len(alphabet))]
			}
			require.NoError(t, r.InsertAt(uint64(off), data))
			model = append(model[:off], append(append([]byte{}, data...), model[off:]...)...)
		} else {
			start := rng.Intn(len(model) + 1)
			end := start + rng.Intn(len(model)-start+1)
			require.NoError(t, r.DeleteRange(uint64(start), uint64(end)))
			model = append(model[:start], model[end:]...)
		}

		require.Equal(t, uint64(len(model)), r.Len(), "iteration %d", i)
		require.Equal(t, uint64(bytes.Count(model, []byte{'\n'})), r.TotalLines(), "iteration %d", i)
		if i%25 == 0 {
			require.Equal(t, model, r.Bytes(), "iteration %d", i)
			assertValidRBTree(t, r.tree)
			assertAggregatesCorrect(t, r.tree, r.tree.root)
		}
	}
	require.Equal(t, model, r.Bytes())
	assertValidRBTree(t, r.tree)
	assertAggregatesCorrect(t, r.tree, r.tree.root)
}

// A leaf whose gap bisects the requested range yields two chunks for
// that leaf, and the concatenation still equals the logical range.
func TestRopeSliceAcrossGap(t *testing.T) {
	r, err := BuildFromBytes([]byte("abcdef"))
	require.NoError(t, err)
	require.NoError(t, r.InsertAt(3, []byte("XY")))

	chunks, err := r.Slice(0, r.Len())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	var got bytes.Buffer
	for _, c := range chunks {
		require.NotEmpty(t, c.Bytes)
		got.Write(c.Bytes)
	}
	assert.Equal(t, "abcXYdef", got.String())
}

func TestRopeSliceClampsEnd(t *testing.T) {
	r, err := BuildFromBytes([]byte("hello"))
	require.NoError(t, err)

	chunks, err := r.Slice(2, 100)
	require.NoError(t, err)
	var got bytes.Buffer
	for _, c := range chunks {
		got.Write(c.Bytes)
	}
	assert.Equal(t, "llo", got.String())
}

func TestRopeUTF8FourByteSequenceSurvivesLeafSplit(t *testing.T) {
	// U+1F600 GRINNING FACE, a 4-byte UTF-8 sequence, placed right at a
	// leafUsable boundary so BuildFromBytes is forced to split it across
	// two leaves' packing.
	emoji := "\U0001F600"
	padding := strings.Repeat("a", leafUsable-2)
	data := []byte(padding + emoji + padding)

	r, err := BuildFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, data, r.Bytes())

	idx := bytes.Index(r.Bytes(), []byte(emoji))
	require.GreaterOrEqual(t, idx, 0)
}
