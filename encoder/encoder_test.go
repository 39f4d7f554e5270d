package encoder

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(width int, ks ...string) [][]byte {
	out := make([][]byte, len(ks))
	for i, k := range ks {
		out[i] = PadKey([]byte(k), width)
	}
	return out
}

func TestEncodeParseLeaf(t *testing.T) {
	e := NewEncoder(9)
	in := &Block{
		Keys:    keys(9, "100000001", "100000002", "2"),
		Offsets: []int64{0, 64, 128},
	}
	buf := e.Encode(in)
	assert.Len(t, buf, 4+3*(9+8))

	out, err := e.Parse(buf)
	require.NoError(t, err)
	assert.True(t, out.IsLeaf())
	assert.Equal(t, in.Keys, out.Keys)
	assert.Equal(t, in.Offsets, out.Offsets)
	assert.Empty(t, out.Children)
}

func TestEncodeParseInternal(t *testing.T) {
	e := NewEncoder(15)
	in := &Block{
		Keys:     keys(15, "Jones", "Smith"),
		Offsets:  []int64{192, 640},
		Children: []int64{0, 57, 114},
	}
	out, err := e.Parse(e.Encode(in))
	require.NoError(t, err)
	assert.False(t, out.IsLeaf())
	assert.Equal(t, in, out)
}

func TestEncodeEmptyLeaf(t *testing.T) {
	e := NewEncoder(9)
	buf := e.Encode(&Block{})
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	out, err := e.Parse(buf)
	require.NoError(t, err)
	assert.True(t, out.IsLeaf())
	assert.Empty(t, out.Keys)
}

func TestEncodeTruncatesAndPads(t *testing.T) {
	e := NewEncoder(4)
	out, err := e.Parse(e.Encode(&Block{
		Keys:    [][]byte{[]byte("A"), []byte("ABCDEFG")},
		Offsets: []int64{1, 2},
	}))
	require.NoError(t, err)
	assert.Equal(t, "A   ", string(out.Keys[0]))
	assert.Equal(t, "ABCD", string(out.Keys[1]))
}

func TestParseRejectsCorruptBlocks(t *testing.T) {
	e := NewEncoder(9)
	good := e.Encode(&Block{Keys: keys(9, "a", "b"), Offsets: []int64{0, 64}})

	overrun := make([]byte, len(good))
	copy(overrun, good)
	binary.LittleEndian.PutUint32(overrun, 50)

	negative := make([]byte, len(good))
	copy(negative, good)
	binary.LittleEndian.PutUint32(negative, 0xFFFFFFFF)

	cases := map[string][]byte{
		"short":     {1, 0},
		"overrun":   overrun,
		"negative":  negative,
		"truncated": good[:len(good)-3],
		"trailing":  append(append([]byte{}, good...), 1, 2, 3),
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Parse(buf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorruptNode), "got %v", err)
		})
	}
}

func TestPadKey(t *testing.T) {
	assert.Equal(t, "A        ", string(PadKey([]byte("A"), 9)))
	assert.Equal(t, "A        ", string(PadKey([]byte("A   "), 9)))
	assert.Equal(t, "123456789", string(PadKey([]byte("1234567890"), 9)))
	assert.Equal(t, "A", string(TrimKey(PadKey([]byte("A"), 9))))
}
