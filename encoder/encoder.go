package encoder

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrCorruptNode is returned when a node block cannot be decoded.
var ErrCorruptNode = errors.New("corrupt node")

const (
	countSize  = 4 // int32 keyCount
	offsetSize = 8 // int64 record offset
	childSize  = 8 // int64 child location
)

// Block is the decoded form of one B-tree node.
// Children is empty for a leaf and has len(Keys)+1 entries otherwise.
type Block struct {
	Keys     [][]byte
	Offsets  []int64
	Children []int64
}

func (b *Block) IsLeaf() bool {
	return len(b.Children) == 0
}

// Encoder converts node blocks to and from their on-disk layout:
//
//	int32 keyCount | key[k] (keyWidth each) | offset[k] | childLoc[k+1 or 0]
type Encoder struct {
	keyWidth int
}

func NewEncoder(keyWidth int) *Encoder {
	return &Encoder{keyWidth: keyWidth}
}

func (e *Encoder) KeyWidth() int {
	return e.keyWidth
}

// Size returns the encoded length of a node holding n keys.
func (e *Encoder) Size(n int, leaf bool) int {
	size := countSize + n*(e.keyWidth+offsetSize)
	if !leaf {
		size += (n + 1) * childSize
	}
	return size
}

func (e *Encoder) Encode(b *Block) []byte {
	n := len(b.Keys)
	buf := make([]byte, e.Size(n, b.IsLeaf()))
	binary.LittleEndian.PutUint32(buf, uint32(n))
	pos := countSize
	for _, key := range b.Keys {
		pos += copy(buf[pos:pos+e.keyWidth], PadKey(key, e.keyWidth))
	}
	for _, off := range b.Offsets {
		binary.LittleEndian.PutUint64(buf[pos:], uint64(off))
		pos += offsetSize
	}
	for _, loc := range b.Children {
		binary.LittleEndian.PutUint64(buf[pos:], uint64(loc))
		pos += childSize
	}
	return buf
}

// Parse decodes buf. The node kind follows from the block length: a block
// that is exactly long enough for the declared keys is a leaf, one that also
// holds keyCount+1 child locations is internal. Anything else is corrupt.
func (e *Encoder) Parse(buf []byte) (*Block, error) {
	if len(buf) < countSize {
		return nil, errors.Wrapf(ErrCorruptNode, "block of %d bytes has no key count", len(buf))
	}
	count := int32(binary.LittleEndian.Uint32(buf))
	if count < 0 {
		return nil, errors.Wrapf(ErrCorruptNode, "negative key count %d", count)
	}
	n := int(count)
	// guard the multiplication below against absurd counts
	if n > (len(buf)-countSize)/(e.keyWidth+offsetSize) {
		return nil, errors.Wrapf(ErrCorruptNode, "key count %d overruns %d byte block", n, len(buf))
	}
	var leaf bool
	switch len(buf) {
	case e.Size(n, true):
		leaf = true
	case e.Size(n, false):
		leaf = false
	default:
		return nil, errors.Wrapf(ErrCorruptNode, "block of %d bytes does not fit key count %d", len(buf), n)
	}

	b := &Block{
		Keys:    make([][]byte, n),
		Offsets: make([]int64, n),
	}
	pos := countSize
	for i := 0; i < n; i++ {
		key := make([]byte, e.keyWidth)
		copy(key, buf[pos:pos+e.keyWidth])
		b.Keys[i] = key
		pos += e.keyWidth
	}
	for i := 0; i < n; i++ {
		b.Offsets[i] = int64(binary.LittleEndian.Uint64(buf[pos:]))
		pos += offsetSize
	}
	if !leaf {
		b.Children = make([]int64, n+1)
		for i := range b.Children {
			b.Children[i] = int64(binary.LittleEndian.Uint64(buf[pos:]))
			pos += childSize
		}
	}
	return b, nil
}

// PadKey normalizes key to exactly width bytes: longer keys are truncated,
// shorter keys are filled with blanks. Every layer that builds or compares
// index keys goes through here.
func PadKey(key []byte, width int) []byte {
	out := make([]byte, width)
	n := copy(out, key)
	for i := n; i < width; i++ {
		out[i] = ' '
	}
	return out
}

// TrimKey strips the blank padding added by PadKey.
func TrimKey(key []byte) []byte {
	return bytes.TrimRight(key, " ")
}
