package nodestore

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"studentdb/encoder"
)

// errBadFrame marks a torn last frame: one cut short by the end of the file
// or one whose damaged bytes run up to it.
var errBadFrame = errors.New("bad frame")

// no node block comes anywhere near this; larger sizes are garbage
const maxFrameSize = 16 << 20

// Reader walks the frames of a store file sequentially. It is used once at
// open time to find the last root frame and the end of the valid data.
type Reader struct {
	br     *bufio.Reader
	offset int64 // start of the next frame
	size   int64 // bytes in the file
	header [headerSize]byte
}

// NewReader reads frames from r, which holds size bytes.
func NewReader(r io.Reader, size int64) *Reader {
	return &Reader{br: bufio.NewReader(r), size: size}
}

// Next returns the location and flags of the next frame. It returns io.EOF
// at a clean end of file and errBadFrame for a torn tail. A damaged frame
// followed by more data fails with encoder.ErrCorruptNode.
func (r *Reader) Next() (loc Location, flags byte, err error) {
	loc = Location(r.offset)
	if _, err = io.ReadFull(r.br, r.header[:]); err != nil {
		if err == io.EOF {
			return loc, 0, io.EOF
		}
		// a crash can leave a short header at the end of the file
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return loc, 0, errBadFrame
		}
		return loc, 0, errors.Wrap(ErrIOFailure, err.Error())
	}
	flags = r.header[8]
	size := binary.LittleEndian.Uint32(r.header[9:13])
	end := r.offset + int64(headerSize) + int64(size)
	if end > r.size {
		return loc, 0, errBadFrame
	}
	if size > maxFrameSize {
		return loc, 0, errors.Wrapf(encoder.ErrCorruptNode, "frame at %d claims %d bytes", loc, size)
	}
	payload := make([]byte, size)
	if _, err = io.ReadFull(r.br, payload); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return loc, 0, errBadFrame
		}
		return loc, 0, errors.Wrap(ErrIOFailure, err.Error())
	}
	if binary.LittleEndian.Uint64(r.header[0:8]) != checksum(r.header[:], payload) {
		if end == r.size {
			return loc, 0, errBadFrame
		}
		return loc, 0, errors.Wrapf(encoder.ErrCorruptNode, "checksum mismatch at %d", loc)
	}
	r.offset = end
	return loc, flags, nil
}

// Offset is the end of the last frame returned by Next.
func (r *Reader) Offset() int64 {
	return r.offset
}
