// Package index exposes one named B-tree index over record offsets.
package index

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"studentdb/btree"
	"studentdb/nodestore"
)

// Options configures an index.
type Options struct {
	Order       int
	KeyWidth    int
	Compression nodestore.Compression
	SyncWrites  bool
	Logger      logrus.FieldLogger
}

// Index maps fixed-width keys to record offsets.
type Index struct {
	name  string
	tree  *btree.Btree
	store *nodestore.Store // nil for an in-memory index
	log   logrus.FieldLogger

	closed bool
}

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("index closed")

// Open opens or creates the index file at path.
func Open(path string, opts Options) (*Index, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	store, err := nodestore.Open(path, nodestore.Options{
		Compression: opts.Compression,
		SyncWrites:  opts.SyncWrites,
		Logger:      opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	tree, err := btree.OpenBTree(opts.Order, opts.KeyWidth, store)
	if err != nil {
		store.Close()
		return nil, errors.Wrapf(err, "open index %s", path)
	}
	ix := &Index{
		name:  path,
		tree:  tree,
		store: store,
		log:   opts.Logger.WithField("index", path),
	}
	ix.log.WithFields(logrus.Fields{
		"order":    opts.Order,
		"keyWidth": opts.KeyWidth,
		"bytes":    store.Size(),
	}).Debug("index opened")
	return ix, nil
}

// NewMemory returns an index that is never written to disk.
func NewMemory(name string, order, keyWidth int) (*Index, error) {
	tree, err := btree.NewBTree(order, keyWidth)
	if err != nil {
		return nil, err
	}
	return &Index{
		name: name,
		tree: tree,
		log:  logrus.StandardLogger().WithField("index", name),
	}, nil
}

func (ix *Index) Name() string {
	return ix.name
}

// Insert records that key lives at offset. Keys must be unique.
func (ix *Index) Insert(key []byte, offset int64) error {
	if ix.closed {
		return ErrClosed
	}
	if offset < 0 {
		return errors.Errorf("negative record offset %d", offset)
	}
	if err := ix.tree.Insert(key, offset); err != nil {
		return err
	}
	ix.log.WithFields(logrus.Fields{"key": string(key), "offset": offset}).Trace("inserted")
	return nil
}

// Search returns the offset stored for key. A missing key is reported with
// ok == false, not as an error.
func (ix *Index) Search(key []byte) (offset int64, ok bool, err error) {
	if ix.closed {
		return 0, false, ErrClosed
	}
	offset, err = ix.tree.Find(key)
	if errors.Is(err, btree.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return offset, true, nil
}

// Walk visits every key depth first with the depth of its node.
func (ix *Index) Walk(fn btree.WalkFunc) error {
	if ix.closed {
		return ErrClosed
	}
	return ix.tree.Walk(fn)
}

// Dump writes the tree as indented offset:key lines.
func (ix *Index) Dump(w io.Writer) error {
	if ix.closed {
		return ErrClosed
	}
	v := &btree.Visualizer{Tree: ix.tree}
	return v.Render(w)
}

func (ix *Index) Check() error {
	if ix.closed {
		return ErrClosed
	}
	return ix.tree.Check()
}

func (ix *Index) Stats() (btree.Stats, error) {
	if ix.closed {
		return btree.Stats{}, ErrClosed
	}
	return ix.tree.Stats()
}

// Size is the number of bytes in the index file, 0 for an in-memory index.
func (ix *Index) Size() int64 {
	if ix.store == nil {
		return 0
	}
	return ix.store.Size()
}

func (ix *Index) Close() error {
	if ix.closed {
		return nil
	}
	ix.closed = true
	if ix.store == nil {
		return nil
	}
	return ix.store.Close()
}
