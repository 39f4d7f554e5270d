package nodestore

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// frame header: checksum (8B) | flags (1B) | payload length (4B)
const headerSize = 8 + 1 + 4

const (
	flagRoot        = 1 << 0
	compressionMask = 0x3 << 1
)

// Compression selects how node payloads are stored inside a frame.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionLZ4
)

func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return CompressionNone, errors.Errorf("unknown compression %q", s)
}

func (c Compression) String() string {
	switch c {
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// compress returns the payload to store and the compression actually used.
// Blocks that do not shrink are stored raw.
func compress(c Compression, block []byte) ([]byte, Compression) {
	switch c {
	case CompressionSnappy:
		out := snappy.Encode(nil, block)
		if len(out) < len(block) {
			return out, CompressionSnappy
		}
	case CompressionLZ4:
		// lz4 blocks do not record their decoded size, so prefix it
		buf := make([]byte, binary.MaxVarintLen64+lz4.CompressBlockBound(len(block)))
		n := binary.PutUvarint(buf, uint64(len(block)))
		m, err := lz4.CompressBlock(block, buf[n:], nil)
		if err == nil && m > 0 && n+m < len(block) {
			return buf[:n+m], CompressionLZ4
		}
	}
	return block, CompressionNone
}

func decompress(c Compression, payload []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionSnappy:
		out, err := snappy.Decode(nil, payload)
		return out, errors.Wrap(err, "snappy")
	case CompressionLZ4:
		size, n := binary.Uvarint(payload)
		if n <= 0 {
			return nil, errors.New("lz4: bad size prefix")
		}
		out := make([]byte, size)
		m, err := lz4.UncompressBlock(payload[n:], out)
		if err != nil {
			return nil, errors.Wrap(err, "lz4")
		}
		if uint64(m) != size {
			return nil, errors.Errorf("lz4: decoded %d of %d bytes", m, size)
		}
		return out, nil
	}
	return nil, errors.Errorf("unknown compression %d", c)
}

func checksum(header, payload []byte) uint64 {
	h := xxhash.New64()
	h.Write(header[8:])
	h.Write(payload)
	return h.Sum64()
}

// frame assembles one on-disk frame for block.
func frame(block []byte, root bool, c Compression) []byte {
	payload, used := compress(c, block)
	buf := make([]byte, headerSize+len(payload))
	flags := byte(used) << 1
	if root {
		flags |= flagRoot
	}
	buf[8] = flags
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	binary.LittleEndian.PutUint64(buf[0:8], checksum(buf[:headerSize], payload))
	return buf
}
