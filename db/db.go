// Package db stores student records in a flat file and keeps one B-tree
// index per searchable field.
package db

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"studentdb/btree"
	"studentdb/index"
	"studentdb/nodestore"
	"studentdb/record"
)

var (
	ErrDuplicateID = errors.New("duplicate student id")
	ErrBadOffset   = errors.New("bad record offset")
	ErrClosed      = errors.New("db closed")
)

type Options struct {
	Order       int
	Compression nodestore.Compression
	SyncWrites  bool
	Logger      logrus.FieldLogger
}

// recordFile is the part of *os.File used for <name>.dat.
type recordFile interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
	Sync() error
	Close() error
}

// fieldIndex is the index API the db relies on, satisfied by *index.Index.
type fieldIndex interface {
	Name() string
	Insert(key []byte, offset int64) error
	Search(key []byte) (int64, bool, error)
	Dump(w io.Writer) error
	Check() error
	Stats() (btree.Stats, error)
	Size() int64
	Close() error
}

type DB struct {
	dir  string
	name string

	data    recordFile // <name>.dat
	size    int64
	indexes map[record.Field]fieldIndex

	opts   Options
	log    logrus.FieldLogger
	closed bool
}

// Open opens or creates the database <name> in dir: the record file
// <name>.dat and the indexes <name>.ix1 (ID) and <name>.ix2 (name).
func Open(dir, name string, opts Options) (*DB, error) {
	if opts.Order == 0 {
		opts.Order = btree.DefaultOrder
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create db folder %s", dir)
	}

	d := &DB{
		dir:     dir,
		name:    name,
		indexes: make(map[record.Field]fieldIndex, len(record.Fields)),
		opts:    opts,
		log:     opts.Logger.WithField("db", name),
	}
	if err := d.openData(); err != nil {
		return nil, err
	}
	for i, f := range record.Fields {
		ix, err := index.Open(d.path(fmt.Sprintf(".ix%d", i+1)), index.Options{
			Order:       opts.Order,
			KeyWidth:    f.Width(),
			Compression: opts.Compression,
			SyncWrites:  opts.SyncWrites,
			Logger:      opts.Logger,
		})
		if err != nil {
			d.Close()
			return nil, err
		}
		d.indexes[f] = ix
	}
	d.log.WithFields(logrus.Fields{"dir": dir, "records": d.Len()}).Info("db opened")
	return d, nil
}

func (d *DB) path(ext string) string {
	return filepath.Join(d.dir, d.name+ext)
}

func (d *DB) openData() error {
	f, err := os.OpenFile(d.path(".dat"), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return errors.Wrapf(err, "open record file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "stat record file")
	}
	size := info.Size()
	if tail := size % record.Size; tail != 0 {
		d.log.WithField("bytes", tail).Warn("dropping partial record at end of record file")
		size -= tail
		if err := f.Truncate(size); err != nil {
			f.Close()
			return errors.Wrapf(err, "truncate record file")
		}
	}
	d.data = f
	d.size = size
	return nil
}

// Len is the number of records in the record file.
func (d *DB) Len() int64 {
	return d.size / record.Size
}

// Add appends s to the record file and indexes it, returning its offset.
// A student whose last name is already indexed is stored and indexed by ID
// only.
func (d *DB) Add(s *record.Student) (int64, error) {
	if d.closed {
		return 0, ErrClosed
	}
	ids := d.indexes[record.FieldID]
	idKey := s.Key(record.FieldID)
	if _, found, err := ids.Search(idKey); err != nil {
		return 0, err
	} else if found {
		return 0, errors.Wrapf(ErrDuplicateID, "%s", s.ID)
	}

	offset, err := d.appendRecord(s)
	if err != nil {
		return 0, err
	}
	if err := ids.Insert(idKey, offset); err != nil {
		// an insert whose flush failed stays in the tree and keeps its record
		if _, kept, serr := ids.Search(idKey); serr != nil || !kept {
			d.truncateTail(offset)
		}
		return 0, errors.Wrapf(err, "index id %s", s.ID)
	}
	err = d.indexes[record.FieldName].Insert(s.Key(record.FieldName), offset)
	if errors.Is(err, btree.ErrDuplicateKey) {
		d.log.WithFields(logrus.Fields{"id": s.ID, "name": s.LastName}).
			Warn("last name already indexed, record reachable by id only")
	} else if err != nil {
		return 0, errors.Wrapf(err, "index name %s", s.LastName)
	}
	return offset, nil
}

func (d *DB) appendRecord(s *record.Student) (int64, error) {
	offset := d.size
	d.size += record.Size
	if _, err := d.data.WriteAt(s.Encode(), offset); err != nil {
		// drop whatever part of the record reached the file
		d.truncateTail(offset)
		return 0, errors.Wrapf(err, "write record at %d", offset)
	}
	if d.opts.SyncWrites {
		if err := d.data.Sync(); err != nil {
			return 0, errors.Wrap(err, "sync record file")
		}
	}
	return offset, nil
}

// truncateTail cuts the record file back to offset. If that fails the bytes
// stay counted so the next record still lands after them.
func (d *DB) truncateTail(offset int64) {
	if err := d.data.Truncate(offset); err != nil {
		d.log.WithError(err).WithField("offset", offset).Error("orphaned record left in record file")
		return
	}
	d.size = offset
}

// BuildReport summarizes a Build.
type BuildReport struct {
	Lines         int
	Added         int
	Skipped       int // malformed lines and duplicate IDs
	NameConflicts int // records not indexed by name
}

// Build loads every record of the data file at path. Malformed lines and
// duplicate IDs are logged and skipped. I/O errors stop the build.
func (d *DB) Build(path string) (BuildReport, error) {
	var rep BuildReport
	f, err := os.Open(path)
	if err != nil {
		return rep, errors.Wrapf(err, "open data file")
	}
	defer f.Close()

	names := d.indexes[record.FieldName]
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rep.Lines++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		log := d.log.WithField("line", rep.Lines)
		s, err := record.Parse(line)
		if err != nil {
			log.WithError(err).Warn("skipping line")
			rep.Skipped++
			continue
		}
		_, nameTaken, err := names.Search(s.Key(record.FieldName))
		if err != nil {
			return rep, err
		}
		if _, err := d.Add(s); errors.Is(err, ErrDuplicateID) {
			log.WithError(err).Warn("skipping line")
			rep.Skipped++
			continue
		} else if err != nil {
			return rep, errors.Wrapf(err, "%s:%d", path, rep.Lines)
		}
		rep.Added++
		if nameTaken {
			rep.NameConflicts++
		}
	}
	if err := scanner.Err(); err != nil {
		return rep, errors.Wrapf(err, "read data file")
	}
	d.log.WithFields(logrus.Fields{
		"file":    path,
		"added":   rep.Added,
		"skipped": rep.Skipped,
	}).Info("build done")
	return rep, nil
}

// Find returns the record offset stored under key in the index of field.
func (d *DB) Find(field record.Field, key string) (int64, bool, error) {
	if d.closed {
		return 0, false, ErrClosed
	}
	ix, err := d.index(field)
	if err != nil {
		return 0, false, err
	}
	return ix.Search(record.PadField(key, field))
}

// Get reads the record at offset.
func (d *DB) Get(offset int64) (*record.Student, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if offset < 0 || offset%record.Size != 0 || offset+record.Size > d.size {
		return nil, errors.Wrapf(ErrBadOffset, "%d", offset)
	}
	buf := make([]byte, record.Size)
	if _, err := d.data.ReadAt(buf, offset); err != nil {
		return nil, errors.Wrapf(err, "read record at %d", offset)
	}
	return record.Decode(buf)
}

// Lookup finds and reads the record stored under key.
func (d *DB) Lookup(field record.Field, key string) (*record.Student, error) {
	offset, ok, err := d.Find(field, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, btree.ErrKeyNotFound
	}
	return d.Get(offset)
}

// Dump writes the index of field as indented offset:key lines.
func (d *DB) Dump(field record.Field, w io.Writer) error {
	if d.closed {
		return ErrClosed
	}
	ix, err := d.index(field)
	if err != nil {
		return err
	}
	return ix.Dump(w)
}

// Check validates the structure of every index.
func (d *DB) Check() error {
	for _, f := range record.Fields {
		if err := d.indexes[f].Check(); err != nil {
			return errors.Wrapf(err, "index %s", f)
		}
	}
	return nil
}

func (d *DB) index(field record.Field) (fieldIndex, error) {
	ix, ok := d.indexes[field]
	if !ok {
		return nil, errors.Errorf("no index on %s", field)
	}
	return ix, nil
}

// Close closes the indexes and the record file. It is safe to call twice.
func (d *DB) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var firstErr error
	for _, f := range record.Fields {
		if ix, ok := d.indexes[f]; ok {
			if err := ix.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if d.data != nil {
		if err := d.data.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "close record file")
		}
	}
	return firstErr
}
