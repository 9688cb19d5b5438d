package chunk

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/hupe1980/spillsort/blobstore"
	"github.com/hupe1980/spillsort/internal/fs"
	"github.com/hupe1980/spillsort/internal/sorterr"
	"github.com/hupe1980/spillsort/resource"
	"github.com/hupe1980/spillsort/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	assert.Equal(t, "sorted_0.bin", Name(0))
	assert.Equal(t, "sorted_42.bin", Name(42))

	for _, tc := range []struct {
		name  string
		index uint64
		ok    bool
	}{
		{"sorted_0.bin", 0, true},
		{"sorted_17.bin", 17, true},
		{"sorted_.bin", 0, false},
		{"sorted_01.bin", 0, false},
		{"sorted_1.bin.tmp", 0, false},
		{"sorted_-1.bin", 0, false},
		{"output.txt", 0, false},
	} {
		index, ok := ParseName(tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.index, index, tc.name)
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCompression(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, got)

	_, err = ParseCompression("snappy")
	assert.Error(t, err)
}

func writeChunk(t *testing.T, s *Store, index uint64, values []float64) *Writer {
	t.Helper()

	w, err := s.Create(context.Background(), index)
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(values))
	require.NoError(t, w.Close())
	return w
}

func readChunk(t *testing.T, s *Store, index uint64) []float64 {
	t.Helper()

	r, err := s.Open(context.Background(), index)
	require.NoError(t, err)
	defer r.Close()

	values, err := r.ReadAll()
	require.NoError(t, err)
	return values
}

func TestRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(4711)

	datasets := map[string][]float64{
		"empty":      nil,
		"single":     {math.Copysign(0, -1)},
		"edgy":       testutil.Sorted(rng.Edgy(3000)),
		"duplicates": testutil.Sorted(rng.DuplicateHeavy(20000, 5)),
	}

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			// Small blocks so that multi-frame chunks are exercised.
			s := NewStore(blobstore.NewMemoryStore(), Config{Compression: c, BlockSize: 1000})

			var index uint64
			for name, values := range datasets {
				w := writeChunk(t, s, index, values)
				assert.Equal(t, int64(len(values)), w.Records(), name)

				got := readChunk(t, s, index)
				require.Len(t, got, len(values), name)
				for i := range values {
					// Compare bit patterns so -0 and +0 are distinguished.
					require.Equal(t, math.Float64bits(values[i]), math.Float64bits(got[i]), name)
				}
				index++
			}
		})
	}
}

func TestRawFormat(t *testing.T) {
	blobs := blobstore.NewMemoryStore()
	s := NewStore(blobs, Config{})

	w := writeChunk(t, s, 3, []float64{1.5, -2})
	assert.Equal(t, int64(16), w.Bytes())

	blob, err := blobs.Open(context.Background(), "sorted_3.bin")
	require.NoError(t, err)

	buf := make([]byte, 16)
	_, err = blob.ReadAt(context.Background(), buf, 0)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(1.5), binary.LittleEndian.Uint64(buf[0:]))
	assert.Equal(t, math.Float64bits(-2), binary.LittleEndian.Uint64(buf[8:]))
}

func TestCompressionShrinksRepetitiveChunks(t *testing.T) {
	values := make([]float64, 50000)
	for i := range values {
		values[i] = float64(i / 1000)
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		s := NewStore(blobstore.NewMemoryStore(), Config{Compression: c})
		w := writeChunk(t, s, 0, values)
		assert.Less(t, w.Bytes(), int64(len(values)*RecordSize/4), c.String())
		assert.Equal(t, values, readChunk(t, s, 0), c.String())
	}
}

func TestOpenMissing(t *testing.T) {
	s := NewStore(blobstore.NewMemoryStore(), Config{})

	_, err := s.Open(context.Background(), 7)

	var coe *sorterr.ChunkOpenError
	require.ErrorAs(t, err, &coe)
	assert.Equal(t, uint64(7), coe.Index)
	assert.Equal(t, "sorted_7.bin", coe.Name)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCorruptRawChunk(t *testing.T) {
	blobs := blobstore.NewMemoryStore()
	require.NoError(t, blobs.Put(context.Background(), Name(1), make([]byte, 12)))

	_, err := NewStore(blobs, Config{}).Open(context.Background(), 1)

	var coe *sorterr.ChunkOpenError
	require.ErrorAs(t, err, &coe)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCorruptCompressedChunk(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	s := NewStore(blobs, Config{Compression: CompressionZSTD})
	writeChunk(t, s, 0, make([]float64, 4096))

	blob, err := blobs.Open(ctx, Name(0))
	require.NoError(t, err)
	data := make([]byte, blob.Size())
	_, err = blob.ReadAt(ctx, data, 0)
	require.NoError(t, err)

	t.Run("Truncated", func(t *testing.T) {
		require.NoError(t, blobs.Put(ctx, Name(1), data[:len(data)-3]))
		r, err := s.Open(ctx, 1)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.ReadAll()
		var cre *sorterr.ChunkReadError
		require.ErrorAs(t, err, &cre)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("BadHeader", func(t *testing.T) {
		bad := make([]byte, frameHeaderSize)
		binary.LittleEndian.PutUint32(bad, maxBlockSize+1)
		require.NoError(t, blobs.Put(ctx, Name(2), bad))
		r, err := s.Open(ctx, 2)
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next()
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestAbort(t *testing.T) {
	ctx := context.Background()
	s := NewStore(blobstore.NewMemoryStore(), Config{})

	w, err := s.Create(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, w.Write(1))
	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())

	indices, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, indices)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	s := NewStore(blobs, Config{})

	for _, i := range []uint64{10, 2, 0} {
		writeChunk(t, s, i, []float64{float64(i)})
	}
	require.NoError(t, blobs.Put(ctx, "sorted_notes.txt", nil))

	indices, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2, 10}, indices)

	require.NoError(t, s.Remove(ctx, 2))
	require.NoError(t, s.Remove(ctx, 2))
	indices, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 10}, indices)
}

func TestWriteFault(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("sorted_1.bin", fs.Fault{FailAfterBytes: 100})

	s := NewStore(blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs)), Config{BufferSize: 64})

	writeChunk(t, s, 0, make([]float64, 100))

	w, err := s.Create(context.Background(), 1)
	require.NoError(t, err)
	err = w.WriteAll(make([]float64, 100))
	if err == nil {
		err = w.Close()
	} else {
		assert.Equal(t, err, w.Close(), "errors are sticky")
	}

	var cwe *sorterr.ChunkWriteError
	require.ErrorAs(t, err, &cwe)
	assert.Equal(t, uint64(1), cwe.Index)
	assert.ErrorIs(t, err, fs.ErrInjected)

	indices, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, indices, "failed chunk must not become visible")
	assert.Empty(t, testutil.Glob(t, dir, "*.tmp"))
}

func TestThrottledIO(t *testing.T) {
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})
	s := NewStore(blobstore.NewMemoryStore(), Config{Controller: rc})

	values := []float64{-1, 0, 1}
	writeChunk(t, s, 0, values)
	assert.Equal(t, values, readChunk(t, s, 0))
}

func TestReaderEOF(t *testing.T) {
	s := NewStore(blobstore.NewMemoryStore(), Config{})
	writeChunk(t, s, 0, []float64{42})

	r, err := s.Open(context.Background(), 0)
	require.NoError(t, err)
	defer r.Close()

	v, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(1), r.Records())
}
