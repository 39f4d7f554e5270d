package btree

import "studentdb/nodestore"

/*
ref is a child reference. It is exactly one of:
  - a resident node owned by its parent (node != nil), or
  - a location in the node store that has to be loaded before use.

The two are never converted into each other's representation; a location
becomes a node only through the store's Load and the block decoder.
*/
type ref struct {
	node *node
	loc  nodestore.Location
}

func memRef(n *node) ref {
	return ref{node: n, loc: nodestore.NoLocation}
}

func diskRef(loc nodestore.Location) ref {
	return ref{loc: loc}
}

func (r ref) resident() bool {
	return r.node != nil
}

// location returns where the referenced node is persisted, or NoLocation
// for a resident node that has not been written yet.
func (r ref) location() nodestore.Location {
	if r.node != nil {
		return r.node.loc
	}
	return r.loc
}
