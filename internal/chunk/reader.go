package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/spillsort/blobstore"
	"github.com/hupe1980/spillsort/internal/sorterr"
)

// Reader streams the records of one chunk in stored order.
type Reader struct {
	index   uint64
	name    string
	blob    blobstore.Blob
	body    io.Closer
	src     io.Reader
	size    int64
	scratch [RecordSize]byte
	records int64
}

// Index returns the chunk index.
func (r *Reader) Index() uint64 { return r.index }

// Name returns the chunk name.
func (r *Reader) Name() string { return r.name }

// Size returns the stored size of the chunk in bytes.
func (r *Reader) Size() int64 { return r.size }

// Records returns the number of records read so far.
func (r *Reader) Records() int64 { return r.records }

// Next returns the next record, or io.EOF once the chunk is exhausted.
// Other failures are reported as *sorterr.ChunkReadError.
func (r *Reader) Next() (float64, error) {
	_, err := io.ReadFull(r.src, r.scratch[:])
	if err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: trailing partial record after %d records", ErrCorrupt, r.records)
		}
		return 0, &sorterr.ChunkReadError{Index: r.index, Name: r.name, Err: err}
	}
	r.records++
	return math.Float64frombits(binary.LittleEndian.Uint64(r.scratch[:])), nil
}

// ReadAll returns the remaining records.
func (r *Reader) ReadAll() ([]float64, error) {
	var out []float64
	if r.size > 0 {
		out = make([]float64, 0, r.size/RecordSize)
	}
	for {
		v, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// Close releases the underlying blob.
func (r *Reader) Close() error {
	err := r.body.Close()
	if cerr := r.blob.Close(); err == nil {
		err = cerr
	}
	return err
}
