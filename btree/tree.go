package btree

import (
	"github.com/pkg/errors"

	"studentdb/encoder"
	"studentdb/nodestore"
)

/*
Btree only keeps a reference to the root node of the tree.
A tree is made up of nodes. Each node contains data items.
With a store attached, every insertion writes the nodes it touched as new
blocks and finishes with a new root block; without one the tree lives in memory.
*/
type Btree struct {
	root     ref
	order    int
	keyWidth int
	store    NodeStore
	enc      *encoder.Encoder
	splits   int
}

// NewBTree returns an empty in-memory tree.
func NewBTree(order, keyWidth int) (*Btree, error) {
	if order < MinOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d is below %d", order, MinOrder)
	}
	if keyWidth < 1 {
		return nil, errors.Errorf("key width must be positive, got %d", keyWidth)
	}
	t := &Btree{
		order:    order,
		keyWidth: keyWidth,
		enc:      encoder.NewEncoder(keyWidth),
	}
	t.root = memRef(newNode(true, order))
	return t, nil
}

// OpenBTree returns a tree backed by store. If the store already holds a
// root, the tree starts from it and loads nodes on demand; otherwise an
// empty root leaf is written.
func OpenBTree(order, keyWidth int, store NodeStore) (*Btree, error) {
	t, err := NewBTree(order, keyWidth)
	if err != nil {
		return nil, err
	}
	t.store = store
	if loc := store.RootLocation(); loc.Valid() {
		t.root = diskRef(loc)
		return t, nil
	}
	if err := t.flush(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Btree) Order() int {
	return t.order
}

func (t *Btree) KeyWidth() int {
	return t.keyWidth
}

func (t *Btree) maxItems() int {
	return t.order - 1
}

// Key normalizes key to the tree's fixed width.
func (t *Btree) Key(key []byte) []byte {
	return encoder.PadKey(key, t.keyWidth)
}

// resolve returns the node behind r, loading it from the store if it is not
// resident. The tree is not modified.
func (t *Btree) resolve(r ref) (*node, error) {
	if r.resident() {
		return r.node, nil
	}
	if t.store == nil {
		return nil, errors.Errorf("location %d referenced by an in-memory tree", r.loc)
	}
	buf, err := t.store.Load(r.loc)
	if err != nil {
		return nil, err
	}
	b, err := t.enc.Parse(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "node at %d", r.loc)
	}
	if len(b.Keys) > t.maxItems() {
		return nil, errors.Wrapf(encoder.ErrCorruptNode, "node at %d holds %d keys, order is %d", r.loc, len(b.Keys), t.order)
	}
	n := newNode(b.IsLeaf(), t.order)
	for i, key := range b.Keys {
		n.items = append(n.items, &item{key: key, val: b.Offsets[i]})
	}
	for _, loc := range b.Children {
		n.children = append(n.children, diskRef(nodestore.Location(loc)))
	}
	n.loc = r.loc
	n.dirty = false
	return n, nil
}

// materialize makes *r resident so that it can be modified in place.
func (t *Btree) materialize(r *ref) (*node, error) {
	n, err := t.resolve(*r)
	if err != nil {
		return nil, err
	}
	*r = memRef(n)
	return n, nil
}

// Find searches the entire tree and returns the value stored for key.
func (t *Btree) Find(key []byte) (int64, error) {
	key = t.Key(key)
	next := t.root
	for {
		n, err := t.resolve(next)
		if err != nil {
			return 0, err
		}
		pos, found := n.search(key)
		if found {
			return n.items[pos].val, nil
		}
		if n.isLeaf() {
			return 0, ErrKeyNotFound
		}
		next = n.children[pos]
	}
}

/*
Insert adds key with value val. Keys must be unique; inserting a key that is
already present returns ErrDuplicateKey and leaves the key set unchanged.
The insertion descends to a leaf, and every node that overflows on the way
back up is split by its parent. If the root overflows, a new root is created
above it and the old root is split beneath it.
*/
func (t *Btree) Insert(key []byte, val int64) error {
	it := &item{key: t.Key(key), val: val}

	root, err := t.materialize(&t.root)
	if err != nil {
		return err
	}
	if err := t.insert(root, it); err != nil {
		return err
	}

	// The tree root overflowed, so grow the tree by one level.
	if len(root.items) > t.maxItems() {
		t.splitRoot()
	}
	return t.flush()
}

func (t *Btree) insert(n *node, it *item) error {
	pos, found := n.search(it.key)
	if found {
		return errors.Wrapf(ErrDuplicateKey, "%q", encoder.TrimKey(it.key))
	}

	// Leaves have room for one more item than they keep at rest.
	if n.isLeaf() {
		n.insertItemAt(pos, it)
		n.dirty = true
		return nil
	}

	child, err := t.materialize(&n.children[pos])
	if err != nil {
		return err
	}
	if err := t.insert(child, it); err != nil {
		return err
	}
	// the child will be rewritten at a new location, so this node changes too
	n.dirty = true

	if len(child.items) > t.maxItems() {
		t.splitChild(n, pos, child)
	}
	return nil
}

/*
splitChild splits the overflowing child at parent.children[i]. The item at
order/2 moves up into parent at position i and the new sibling, holding
everything after it, is linked in at i+1.
*/
func (t *Btree) splitChild(parent *node, i int, child *node) {
	midItem, sibling := child.split(t.order/2, t.order)
	parent.insertItemAt(i, midItem)
	parent.insertChildAt(i+1, memRef(sibling))
	parent.dirty = true
	t.splits++
}

/*
Create a new root node.
The existing root then becomes the new root's only child and is split beneath it,
so the new root ends up with one item and two children.
*/
func (t *Btree) splitRoot() {
	newRoot := newNode(false, t.order)
	old := t.root.node
	newRoot.insertChildAt(0, t.root)
	t.splitChild(newRoot, 0, old)
	t.root = memRef(newRoot)
}

/*
flush writes every dirty node reachable from the root, children before
parents and the root last. A node only takes its new location once its block
is safely appended, so a parent can never reference a block that was not
written. If an append fails the previous root block stays the store's root.
*/
func (t *Btree) flush() error {
	if t.store == nil || !t.root.resident() || !t.root.node.dirty {
		return nil
	}
	return t.write(t.root.node, true)
}

func (t *Btree) write(n *node, root bool) error {
	for _, c := range n.children {
		if c.resident() && c.node.dirty {
			if err := t.write(c.node, false); err != nil {
				return err
			}
		}
	}
	b := &encoder.Block{
		Keys:    make([][]byte, len(n.items)),
		Offsets: make([]int64, len(n.items)),
	}
	for i, it := range n.items {
		b.Keys[i] = it.key
		b.Offsets[i] = it.val
	}
	if !n.isLeaf() {
		b.Children = make([]int64, len(n.children))
		for i, c := range n.children {
			b.Children[i] = int64(c.location())
		}
	}
	loc, err := t.store.Append(t.enc.Encode(b), root)
	if err != nil {
		return err
	}
	n.loc = loc
	n.dirty = false
	return nil
}

// Height returns the number of levels in the tree; an empty tree has height 1.
func (t *Btree) Height() (int, error) {
	h := 0
	next := t.root
	for {
		n, err := t.resolve(next)
		if err != nil {
			return 0, err
		}
		h++
		if n.isLeaf() {
			return h, nil
		}
		next = n.children[0]
	}
}

// Stats walks the whole tree.
func (t *Btree) Stats() (Stats, error) {
	s := Stats{Order: t.order, KeyWidth: t.keyWidth, Splits: t.splits}
	err := t.walkNodes(func(depth int, n *node) error {
		s.Nodes++
		s.Keys += len(n.items)
		if depth+1 > s.Height {
			s.Height = depth + 1
		}
		return nil
	})
	return s, err
}
