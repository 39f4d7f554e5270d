package btree

import (
	"bytes"

	"github.com/pkg/errors"
)

// WalkFunc receives one key per call, with the depth of the node holding it.
// Returning an error stops the walk.
type WalkFunc func(depth int, key []byte, val int64) error

// Walk visits the tree depth first: all keys of a node, in order, and then
// each of its children from left to right.
func (t *Btree) Walk(fn WalkFunc) error {
	return t.walkNodes(func(depth int, n *node) error {
		for _, it := range n.items {
			if err := fn(depth, it.key, it.val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ascend visits every key in increasing order.
func (t *Btree) Ascend(fn func(key []byte, val int64) error) error {
	return t.ascend(t.root, fn)
}

func (t *Btree) ascend(r ref, fn func(key []byte, val int64) error) error {
	n, err := t.resolve(r)
	if err != nil {
		return err
	}
	for i, it := range n.items {
		if !n.isLeaf() {
			if err := t.ascend(n.children[i], fn); err != nil {
				return err
			}
		}
		if err := fn(it.key, it.val); err != nil {
			return err
		}
	}
	if !n.isLeaf() {
		return t.ascend(n.children[len(n.children)-1], fn)
	}
	return nil
}

func (t *Btree) walkNodes(fn func(depth int, n *node) error) error {
	var visit func(r ref, depth int) error
	visit = func(r ref, depth int) error {
		n, err := t.resolve(r)
		if err != nil {
			return err
		}
		if err := fn(depth, n); err != nil {
			return err
		}
		for _, c := range n.children {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.root, 0)
}

/*
Check verifies the structural invariants of the tree:
  - keys inside every node are strictly increasing,
  - every key lies between the separators of its parent,
  - every non-root node holds between 1 and order-1 keys, the root at most order-1,
  - internal nodes have one more child than keys,
  - all leaves are at the same depth.
*/
func (t *Btree) Check() error {
	leafDepth := -1
	var check func(r ref, depth int, lo, hi []byte) error
	check = func(r ref, depth int, lo, hi []byte) error {
		n, err := t.resolve(r)
		if err != nil {
			return err
		}
		count := len(n.items)
		if count > t.maxItems() {
			return errors.Errorf("node at depth %d holds %d keys, max is %d", depth, count, t.maxItems())
		}
		if depth > 0 && count < 1 {
			return errors.Errorf("empty non-root node at depth %d", depth)
		}
		for i, it := range n.items {
			if i > 0 && bytes.Compare(n.items[i-1].key, it.key) >= 0 {
				return errors.Errorf("keys out of order at depth %d: %q >= %q", depth, n.items[i-1].key, it.key)
			}
			if lo != nil && bytes.Compare(it.key, lo) <= 0 {
				return errors.Errorf("key %q at depth %d not above separator %q", it.key, depth, lo)
			}
			if hi != nil && bytes.Compare(it.key, hi) >= 0 {
				return errors.Errorf("key %q at depth %d not below separator %q", it.key, depth, hi)
			}
		}
		if n.isLeaf() {
			if leafDepth == -1 {
				leafDepth = depth
			} else if leafDepth != depth {
				return errors.Errorf("leaves at depths %d and %d", leafDepth, depth)
			}
			return nil
		}
		if len(n.children) != count+1 {
			return errors.Errorf("internal node at depth %d has %d keys and %d children", depth, count, len(n.children))
		}
		for i, c := range n.children {
			clo, chi := lo, hi
			if i > 0 {
				clo = n.items[i-1].key
			}
			if i < count {
				chi = n.items[i].key
			}
			if err := check(c, depth+1, clo, chi); err != nil {
				return err
			}
		}
		return nil
	}
	return check(t.root, 0, nil, nil)
}
