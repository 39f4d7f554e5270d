package nodestore

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"studentdb/encoder"
)

var (
	// ErrOpenFailure is returned when the store file cannot be created or opened.
	ErrOpenFailure = errors.New("open failure")
	// ErrIOFailure is returned when a read or write fails mid-operation.
	ErrIOFailure = errors.New("io failure")
)

// Location is the byte offset of a frame in the store file. Locations are
// stable for the lifetime of the file.
type Location int64

// NoLocation marks a node that has never been written.
const NoLocation Location = -1

func (l Location) Valid() bool {
	return l >= 0
}

type Options struct {
	Compression Compression
	// SyncWrites forces an fsync after every appended frame.
	SyncWrites bool
	Logger     logrus.FieldLogger
}

// storeFile is the part of *os.File the store uses.
type storeFile interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.Seeker
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
	Sync() error
	Close() error
	Name() string
}

// Store is an append-only file of node frames. A frame, once written, is
// never modified or moved.
type Store struct {
	file storeFile
	size int64
	root Location
	opts Options
	log  logrus.FieldLogger
}

// Open opens or creates the store at path, scans it for the most recent root
// frame and drops a torn tail left by an interrupted append.
func Open(path string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(ErrOpenFailure, "%s: %v", path, err)
	}
	s := &Store{
		file: f,
		root: NoLocation,
		opts: opts,
		log:  opts.Logger.WithField("store", path),
	}
	if err := s.recover(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) recover() error {
	st, err := s.file.Stat()
	if err != nil {
		return errors.Wrapf(ErrOpenFailure, "stat: %v", err)
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(ErrOpenFailure, "seek: %v", err)
	}
	r := NewReader(s.file, st.Size())
	frames := 0
	for {
		loc, flags, err := r.Next()
		if err == io.EOF {
			break
		}
		if err == errBadFrame {
			s.log.WithField("offset", loc).Warn("discarding damaged tail of node store")
			break
		}
		if err != nil {
			return errors.Wrapf(err, "scan %s", s.file.Name())
		}
		frames++
		if flags&flagRoot != 0 {
			s.root = loc
		}
	}
	s.size = r.Offset()
	if s.size < st.Size() {
		if err := s.file.Truncate(s.size); err != nil {
			return errors.Wrapf(ErrOpenFailure, "truncate: %v", err)
		}
	}
	s.log.WithFields(logrus.Fields{"frames": frames, "root": s.root}).Debug("node store opened")
	return nil
}

// Append writes block as a new frame at the end of the store and returns its
// location. A root frame becomes the store's root location.
func (s *Store) Append(block []byte, root bool) (Location, error) {
	buf := frame(block, root, s.opts.Compression)
	loc := Location(s.size)
	if _, err := s.file.Write(buf); err != nil {
		s.resync()
		return NoLocation, errors.Wrapf(ErrIOFailure, "append at %d: %v", loc, err)
	}
	if s.opts.SyncWrites {
		if err := s.file.Sync(); err != nil {
			// the frame is in the file even though it may not be durable
			s.resync()
			return NoLocation, errors.Wrapf(ErrIOFailure, "sync: %v", err)
		}
	}
	s.size += int64(len(buf))
	if root {
		s.root = loc
	}
	return loc, nil
}

// resync re-reads the file size after a failed write so that the next frame
// lands at the real end of the file.
func (s *Store) resync() {
	if st, err := s.file.Stat(); err == nil {
		s.size = st.Size()
	}
}

// Load reads the block stored at loc.
func (s *Store) Load(loc Location) ([]byte, error) {
	if !loc.Valid() || int64(loc)+headerSize > s.size {
		return nil, errors.Wrapf(ErrIOFailure, "location %d outside store of %d bytes", loc, s.size)
	}
	var header [headerSize]byte
	if _, err := s.file.ReadAt(header[:], int64(loc)); err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "read header at %d: %v", loc, err)
	}
	size := int64(binary.LittleEndian.Uint32(header[9:13]))
	if int64(loc)+headerSize+size > s.size {
		return nil, errors.Wrapf(encoder.ErrCorruptNode, "frame at %d overruns store", loc)
	}
	payload := make([]byte, size)
	if _, err := s.file.ReadAt(payload, int64(loc)+headerSize); err != nil {
		return nil, errors.Wrapf(ErrIOFailure, "read frame at %d: %v", loc, err)
	}
	if binary.LittleEndian.Uint64(header[0:8]) != checksum(header[:], payload) {
		return nil, errors.Wrapf(encoder.ErrCorruptNode, "checksum mismatch at %d", loc)
	}
	block, err := decompress(Compression((header[8]&compressionMask)>>1), payload)
	if err != nil {
		return nil, errors.Wrapf(encoder.ErrCorruptNode, "frame at %d: %v", loc, err)
	}
	return block, nil
}

// RootLocation returns the location of the most recent root frame, or
// NoLocation for an empty store.
func (s *Store) RootLocation() Location {
	return s.root
}

func (s *Store) Size() int64 {
	return s.size
}

func (s *Store) Path() string {
	return s.file.Name()
}

func (s *Store) Sync() error {
	if err := s.file.Sync(); err != nil {
		return errors.Wrapf(ErrIOFailure, "sync: %v", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Sync()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	if err != nil {
		return errors.Wrapf(ErrIOFailure, "close: %v", err)
	}
	return nil
}
