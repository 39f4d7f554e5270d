package btree

import (
	"bytes"

	"studentdb/nodestore"
)

type node struct {
	// a node holds at most order-1 items at rest; during an insertion it may
	// briefly hold order items until its parent splits it.
	items    []*item
	children []ref
	leaf     bool

	// last location the node was written to, NoLocation if never written
	loc nodestore.Location
	// set when the node differs from the block at loc
	dirty bool
}

func newNode(leaf bool, order int) *node {
	n := &node{
		items: make([]*item, 0, order),
		leaf:  leaf,
		loc:   nodestore.NoLocation,
		dirty: true,
	}
	if !leaf {
		n.children = make([]ref, 0, order+1)
	}
	return n
}

func (n *node) isLeaf() bool {
	return n.leaf
}

// search returns the position of key in n and whether it is there. For a
// missing key the position is where it would be inserted, which is also the
// child to descend into.
func (n *node) search(key []byte) (int, bool) {
	low, high := 0, len(n.items)
	var mid int
	for low < high {
		mid = (low + high) / 2
		cmp := bytes.Compare(key, n.items[mid].key)
		switch {
		case cmp > 0:
			low = mid + 1
		case cmp < 0:
			high = mid
		case cmp == 0:
			return mid, true
		}
	}
	return low, false
}

// helper method to insert data item at an arbitrary position of a B-tree node
func (n *node) insertItemAt(pos int, it *item) {
	n.items = append(n.items, nil)
	copy(n.items[pos+1:], n.items[pos:])
	n.items[pos] = it
}

// helper method to insert child reference at an arbitrary position of a B-tree node
func (n *node) insertChildAt(pos int, child ref) {
	n.children = append(n.children, ref{})
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = child
}

/*
split divides an overflowing node around items[mid]. n keeps items[:mid] and,
if internal, children[:mid+1]; the returned sibling takes items[mid+1:] and
children[mid+1:]. The middle item is returned for promotion into the parent,
value included.
*/
func (n *node) split(mid, order int) (*item, *node) {
	midItem := n.items[mid]

	sibling := newNode(n.leaf, order)
	sibling.items = append(sibling.items, n.items[mid+1:]...)
	if !n.isLeaf() {
		sibling.children = append(sibling.children, n.children[mid+1:]...)
		clear(n.children[mid+1:])
		n.children = n.children[:mid+1]
	}

	clear(n.items[mid:])
	n.items = n.items[:mid]
	n.dirty = true
	return midItem, sibling
}
