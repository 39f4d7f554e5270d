package btree

import (
	"github.com/pkg/errors"

	"studentdb/nodestore"
)

const (
	// MinOrder is the smallest order for which a split leaves both halves non-empty.
	MinOrder = 3
	// DefaultOrder matches the two indexes the student database keeps.
	DefaultOrder = 3
)

var (
	ErrKeyNotFound  = errors.New("key not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidOrder = errors.New("invalid order")
)

// NodeStore persists encoded nodes. *nodestore.Store implements it.
type NodeStore interface {
	Append(block []byte, root bool) (nodestore.Location, error)
	Load(loc nodestore.Location) ([]byte, error)
	RootLocation() nodestore.Location
}

// Stats describes the shape of a tree.
type Stats struct {
	Order    int
	KeyWidth int
	Height   int
	Keys     int
	Nodes    int
	Splits   int
}
