package chunk

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block codec used for chunk payloads.
//
// Compressed chunks are a sequence of frames:
//
//	[uncompressedLen uint32][compressedLen uint32][payload]
//
// compressedLen == 0 means the payload is stored raw because the codec did not
// shrink the block enough to be worth decoding.
type Compression uint8

const (
	// CompressionNone writes raw records with no framing.
	CompressionNone Compression = iota
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses the names returned by Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("chunk: unknown compression %q", s)
	}
}

const (
	frameHeaderSize = 8

	// DefaultBlockSize is the uncompressed size of a block: 8192 records.
	DefaultBlockSize = 64 * 1024

	// maxBlockSize bounds allocations driven by frame headers.
	maxBlockSize = 16 * 1024 * 1024
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// appendFrame compresses data and appends the resulting frame to dst.
func appendFrame(dst, data []byte, c Compression) ([]byte, error) {
	var compressed []byte

	switch c {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		compressed = make([]byte, bound)
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, err
		}
		compressed = compressed[:n] // n == 0: incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	}

	var hdr [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))

	// Store raw when compression saves less than 10%.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}

	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// decodeFrame decompresses payload into dst[:0] and returns the result.
func decodeFrame(dst, payload []byte, uncompressedLen int, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		if cap(dst) < uncompressedLen {
			dst = make([]byte, uncompressedLen)
		}
		dst = dst[:uncompressedLen]
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if n != uncompressedLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return dst, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(payload, dst[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if len(decoded) != uncompressedLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: compressed frame in %s chunk", ErrCorrupt, c)
	}
}

// blockWriter buffers writes and emits one frame per full block.
type blockWriter struct {
	w           io.Writer
	compression Compression
	blockSize   int
	buf         []byte
	frame       []byte
}

func newBlockWriter(w io.Writer, c Compression, blockSize int) *blockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &blockWriter{
		w:           w,
		compression: c,
		blockSize:   blockSize,
		buf:         make([]byte, 0, blockSize),
	}
}

func (b *blockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if len(b.buf) == b.blockSize {
			if err := b.Flush(); err != nil {
				return total, err
			}
		}
		n := min(len(p), b.blockSize-len(b.buf))
		b.buf = append(b.buf, p[:n]...)
		total += n
		p = p[n:]
	}
	return total, nil
}

// Flush writes the pending partial block, if any.
func (b *blockWriter) Flush() error {
	if len(b.buf) == 0 {
		return nil
	}

	frame, err := appendFrame(b.frame[:0], b.buf, b.compression)
	if err != nil {
		return err
	}
	b.frame = frame

	if _, err := b.w.Write(frame); err != nil {
		return err
	}
	b.buf = b.buf[:0]
	return nil
}

// blockReader decodes frames written by blockWriter.
type blockReader struct {
	r           io.Reader
	compression Compression
	hdr         [frameHeaderSize]byte
	payload     []byte
	block       []byte
	pos         int
}

func newBlockReader(r io.Reader, c Compression) *blockReader {
	return &blockReader{r: r, compression: c}
}

func (b *blockReader) Read(p []byte) (int, error) {
	for b.pos >= len(b.block) {
		if err := b.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, b.block[b.pos:])
	b.pos += n
	return n, nil
}

func (b *blockReader) next() error {
	if _, err := io.ReadFull(b.r, b.hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: truncated frame header", ErrCorrupt)
		}
		return err
	}

	uncompressedLen := int(binary.LittleEndian.Uint32(b.hdr[0:]))
	compressedLen := int(binary.LittleEndian.Uint32(b.hdr[4:]))
	if uncompressedLen == 0 || uncompressedLen > maxBlockSize || compressedLen > maxBlockSize {
		return fmt.Errorf("%w: invalid frame header", ErrCorrupt)
	}

	stored := compressedLen
	if stored == 0 {
		stored = uncompressedLen
	}
	if cap(b.payload) < stored {
		b.payload = make([]byte, stored)
	}
	b.payload = b.payload[:stored]
	if _, err := io.ReadFull(b.r, b.payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: truncated frame payload", ErrCorrupt)
		}
		return err
	}

	b.pos = 0
	if compressedLen == 0 {
		b.block = append(b.block[:0], b.payload...)
		return nil
	}

	block, err := decodeFrame(b.block, b.payload, uncompressedLen, b.compression)
	if err != nil {
		return err
	}
	b.block = block
	return nil
}
