package chunk

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/spillsort/blobstore"
	"github.com/hupe1980/spillsort/internal/sorterr"
	"github.com/hupe1980/spillsort/resource"
)

// DefaultBufferSize is the read and write buffer used per open chunk.
const DefaultBufferSize = 64 * 1024

// Config controls how chunks are encoded and throttled.
type Config struct {
	// Compression is applied to every chunk of a run.
	Compression Compression
	// BlockSize is the uncompressed block size in bytes for compressed chunks.
	BlockSize int
	// BufferSize sizes the bufio reader and writer of every open chunk.
	BufferSize int
	// Controller throttles chunk IO. Nil means unlimited.
	Controller *resource.Controller
}

// Store reads and writes chunks in a blob store.
type Store struct {
	blobs blobstore.BlobStore
	cfg   Config
}

// NewStore creates a chunk store on top of blobs.
func NewStore(blobs blobstore.BlobStore, cfg Config) *Store {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	cfg.BlockSize -= cfg.BlockSize % RecordSize
	if cfg.BlockSize == 0 {
		cfg.BlockSize = RecordSize
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	return &Store{blobs: blobs, cfg: cfg}
}

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blobstore.BlobStore {
	return s.blobs
}

// Compression returns the codec used for new and existing chunks.
func (s *Store) Compression() Compression {
	return s.cfg.Compression
}

// Create starts writing the chunk with the given index. The chunk becomes
// visible under its name only after Writer.Close succeeds.
func (s *Store) Create(ctx context.Context, index uint64) (*Writer, error) {
	name := Name(index)

	blob, err := s.blobs.Create(ctx, name)
	if err != nil {
		return nil, &sorterr.ChunkWriteError{Index: index, Name: name, Err: err}
	}

	w := &Writer{
		index: index,
		name:  name,
		blob:  blob,
	}
	w.counter = &countingWriter{w: blob}

	var dst io.Writer = w.counter
	if s.cfg.Controller != nil {
		dst = resource.NewRateLimitedWriter(ctx, dst, s.cfg.Controller)
	}

	if s.cfg.Compression == CompressionNone {
		w.out = bufio.NewWriterSize(dst, s.cfg.BufferSize)
	} else {
		w.out = newBlockWriter(dst, s.cfg.Compression, s.cfg.BlockSize)
	}
	return w, nil
}

// Open opens the chunk with the given index for sequential reading.
func (s *Store) Open(ctx context.Context, index uint64) (*Reader, error) {
	name := Name(index)

	blob, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, &sorterr.ChunkOpenError{Index: index, Name: name, Err: err}
	}

	if s.cfg.Compression == CompressionNone && blob.Size()%RecordSize != 0 {
		_ = blob.Close()
		return nil, &sorterr.ChunkOpenError{
			Index: index,
			Name:  name,
			Err:   fmt.Errorf("%w: size %d is not a multiple of %d", ErrCorrupt, blob.Size(), RecordSize),
		}
	}

	body, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		_ = blob.Close()
		return nil, &sorterr.ChunkOpenError{Index: index, Name: name, Err: err}
	}

	var src io.Reader = body
	if s.cfg.Controller != nil {
		src = resource.NewRateLimitedReader(ctx, src, s.cfg.Controller)
	}
	src = bufio.NewReaderSize(src, s.cfg.BufferSize)
	if s.cfg.Compression != CompressionNone {
		src = newBlockReader(src, s.cfg.Compression)
	}

	return &Reader{
		index: index,
		name:  name,
		blob:  blob,
		body:  body,
		src:   src,
		size:  blob.Size(),
	}, nil
}

// Remove deletes the chunk with the given index. Removing a missing chunk
// is not an error.
func (s *Store) Remove(ctx context.Context, index uint64) error {
	return s.blobs.Delete(ctx, Name(index))
}

// List returns the indices of all chunks in the store in ascending order.
func (s *Store) List(ctx context.Context) ([]uint64, error) {
	names, err := s.blobs.List(ctx, NamePrefix)
	if err != nil {
		return nil, err
	}

	indices := make([]uint64, 0, len(names))
	for _, name := range names {
		if index, ok := ParseName(name); ok {
			indices = append(indices, index)
		}
	}
	slices.Sort(indices)
	return indices, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
