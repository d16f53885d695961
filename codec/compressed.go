// Copyright 2016 Aleksandr Demakin. All rights reserved.

package codec

import (
	"encoding/binary"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Algorithm identifies the compression of a payload.
// The value is stored in the first byte of a compressed payload.
type Algorithm uint8

// compression algorithms.
const (
	None Algorithm = 0
	LZ4  Algorithm = 1
	Zstd Algorithm = 2
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// maxUncompressedSize bounds the length prefix, so that a corrupted payload
// could not make us allocate arbitrary amounts of memory.
const maxUncompressedSize = 64 * 1024 * 1024

var errIncompressible = errors.New("data is incompressible")

// zstd.Encoder and zstd.Decoder are safe for concurrent use of EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxUncompressedSize))
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Compressed wraps another codec and compresses its output.
// Payload layout: algorithm byte, uvarint length of the inner payload, compressed inner payload.
// If compression does not make the payload smaller, it is stored with None.
type Compressed struct {
	inner     Codec
	algorithm Algorithm
}

// NewCompressed returns a codec, which compresses the output of inner with the algorithm.
func NewCompressed(inner Codec, algorithm Algorithm) *Compressed {
	return &Compressed{inner: inner, algorithm: algorithm}
}

// Marshal encodes v with the inner codec and compresses the result.
func (c *Compressed) Marshal(v any) ([]byte, error) {
	raw, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	algorithm := c.algorithm
	body, err := compress(raw, algorithm)
	if err == errIncompressible {
		algorithm, body, err = None, raw, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, 1, 1+binary.MaxVarintLen64+len(body))
	out[0] = byte(algorithm)
	out = binary.AppendUvarint(out, uint64(len(raw)))
	return append(out, body...), nil
}

// Unmarshal decompresses data and decodes it with the inner codec.
// The algorithm is taken from the payload, not from the codec settings.
func (c *Compressed) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("compressed payload is empty")
	}
	algorithm := Algorithm(data[0])
	size, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return errors.New("compressed payload has an invalid length prefix")
	}
	if size > maxUncompressedSize {
		return errors.Errorf("compressed payload declares %d bytes, the limit is %d", size, maxUncompressedSize)
	}
	raw, err := decompress(data[1+n:], algorithm, int(size))
	if err != nil {
		return err
	}
	return c.inner.Unmarshal(raw, v)
}

// Name returns inner codec name with the algorithm suffix.
func (c *Compressed) Name() string {
	return c.inner.Name() + "+" + c.algorithm.String()
}

func compress(data []byte, algorithm Algorithm) ([]byte, error) {
	switch algorithm {
	case None:
		return data, nil
	case LZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 compress")
		}
		// 0 means the data is incompressible.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil
	case Zstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil
	default:
		return nil, errors.Errorf("unsupported compression algorithm %d", algorithm)
	}
}

func decompress(data []byte, algorithm Algorithm, size int) ([]byte, error) {
	switch algorithm {
	case None:
		if len(data) != size {
			return nil, errors.Errorf("uncompressed payload: size %d does not match expected %d", len(data), size)
		}
		return data, nil
	case LZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(data, destination)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 decompress")
		}
		if read != size {
			return nil, errors.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil
	case Zstd:
		result, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, errors.Wrap(err, "zstd decompress")
		}
		if len(result) != size {
			return nil, errors.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil
	default:
		return nil, errors.Errorf("unsupported compression algorithm %d", algorithm)
	}
}
