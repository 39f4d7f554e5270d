package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafWith(order int, keys ...string) *node {
	n := newNode(true, order)
	for i, k := range keys {
		n.items = append(n.items, &item{key: []byte(k), val: int64(i)})
	}
	return n
}

func keysOf(n *node) []string {
	out := make([]string, len(n.items))
	for i, it := range n.items {
		out[i] = string(it.key)
	}
	return out
}

func TestNodeSearch(t *testing.T) {
	n := leafWith(5, "b", "d", "f")
	cases := []struct {
		key   string
		pos   int
		found bool
	}{
		{"a", 0, false}, {"b", 0, true}, {"c", 1, false},
		{"d", 1, true}, {"f", 2, true}, {"g", 3, false},
	}
	for _, c := range cases {
		pos, found := n.search([]byte(c.key))
		assert.Equal(t, c.pos, pos, c.key)
		assert.Equal(t, c.found, found, c.key)
	}
}

func TestSplitLeaf(t *testing.T) {
	for order := 3; order <= 9; order++ {
		keys := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}[:order]
		n := leafWith(order, keys...)
		mid := order / 2
		midItem, sibling := n.split(mid, order)

		assert.Equal(t, keys[mid], string(midItem.key))
		assert.Equal(t, int64(mid), midItem.val)
		assert.Equal(t, keys[:mid], keysOf(n))
		assert.Equal(t, keys[mid+1:], keysOf(sibling))
		// no key is lost or duplicated, and neither half is empty
		assert.Equal(t, order-1, len(n.items)+len(sibling.items))
		assert.NotEmpty(t, n.items)
		assert.NotEmpty(t, sibling.items)
		assert.True(t, sibling.isLeaf())
	}
}

func TestSplitInternal(t *testing.T) {
	order := 4
	n := newNode(false, order)
	var kids []*node
	for i, k := range []string{"b", "d", "f", "h"} {
		n.items = append(n.items, &item{key: []byte(k), val: int64(i)})
	}
	for _, k := range []string{"a", "c", "e", "g", "i"} {
		kid := leafWith(order, k)
		kids = append(kids, kid)
		n.children = append(n.children, memRef(kid))
	}

	midItem, sibling := n.split(order/2, order)
	require.False(t, sibling.isLeaf())
	assert.Equal(t, "f", string(midItem.key))
	assert.Equal(t, []string{"b", "d"}, keysOf(n))
	assert.Equal(t, []string{"h"}, keysOf(sibling))
	require.Len(t, n.children, 3)
	require.Len(t, sibling.children, 2)
	assert.Same(t, kids[2], n.children[2].node)
	assert.Same(t, kids[3], sibling.children[0].node)
	assert.Same(t, kids[4], sibling.children[1].node)
}

func TestInsertAt(t *testing.T) {
	n := leafWith(5, "b", "d")
	n.insertItemAt(0, &item{key: []byte("a")})
	n.insertItemAt(2, &item{key: []byte("c")})
	n.insertItemAt(4, &item{key: []byte("e")})
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keysOf(n))
}
