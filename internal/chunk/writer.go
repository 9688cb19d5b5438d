package chunk

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/hupe1980/spillsort/blobstore"
	"github.com/hupe1980/spillsort/internal/sorterr"
)

type flushWriter interface {
	io.Writer
	Flush() error
}

// Writer appends records to a new chunk. Callers are responsible for writing
// records in non-decreasing order.
//
// Errors are sticky: after the first failure every call returns the same
// *sorterr.ChunkWriteError.
type Writer struct {
	index   uint64
	name    string
	blob    blobstore.WritableBlob
	out     flushWriter
	counter *countingWriter
	scratch [RecordSize]byte
	records int64
	err     error
	done    bool
}

// Index returns the chunk index.
func (w *Writer) Index() uint64 { return w.index }

// Name returns the chunk name.
func (w *Writer) Name() string { return w.name }

// Records returns the number of records written so far.
func (w *Writer) Records() int64 { return w.records }

// Bytes returns the number of encoded bytes handed to the blob so far.
// It is final after Close.
func (w *Writer) Bytes() int64 { return w.counter.n }

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = &sorterr.ChunkWriteError{Index: w.index, Name: w.name, Err: err}
	}
	return w.err
}

// Write appends one record.
func (w *Writer) Write(v float64) error {
	if w.err != nil {
		return w.err
	}
	if w.done {
		return w.fail(errors.New("write after close"))
	}
	binary.LittleEndian.PutUint64(w.scratch[:], math.Float64bits(v))
	if _, err := w.out.Write(w.scratch[:]); err != nil {
		return w.fail(err)
	}
	w.records++
	return nil
}

// WriteAll appends all records of vs.
func (w *Writer) WriteAll(vs []float64) error {
	for _, v := range vs {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered records and commits the chunk. On failure the
// partial chunk is discarded.
func (w *Writer) Close() error {
	if w.done {
		return w.err
	}
	w.done = true

	if w.err != nil {
		_ = w.blob.Abort()
		return w.err
	}

	if err := w.out.Flush(); err != nil {
		_ = w.blob.Abort()
		return w.fail(err)
	}
	if err := w.blob.Sync(); err != nil {
		_ = w.blob.Abort()
		return w.fail(err)
	}
	if err := w.blob.Close(); err != nil {
		return w.fail(err)
	}
	return nil
}

// Abort discards the chunk. It is a no-op after Close.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.blob.Abort()
}
