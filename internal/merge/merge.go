// Package merge reduces a set of sorted chunks to one by repeated two-way merges.
package merge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/hupe1980/spillsort/internal/chunk"
	"github.com/hupe1980/spillsort/internal/chunkset"
)

// Config configures a Merger.
type Config struct {
	// Logger receives per-merge debug records. Nil discards them.
	Logger *slog.Logger
	// OnMerge is called after every attempted pair merge.
	OnMerge func(d time.Duration, left, right, out uint64, records int64, err error)
}

// Result summarizes a merge phase.
type Result struct {
	// Final is the index of the surviving chunk. Only valid if OK is set.
	Final uint64
	// OK is false when there were no chunks to merge.
	OK bool
	// Merges counts the pair merges performed.
	Merges int
	// Records is the number of records in the final chunk, if any merge ran.
	Records int64
}

// Merger merges chunks within one store.
type Merger struct {
	store *chunk.Store
	cfg   Config
}

// New returns a Merger over store.
func New(store *chunk.Store, cfg Config) *Merger {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Merger{store: store, cfg: cfg}
}

// Reduce merges the chunks in pending until one remains.
//
// pending is treated as a FIFO queue: the first two indices are merged into
// a new chunk at seq.Next(), both inputs are removed, and the new index is
// appended. An index left without a partner in one round therefore pairs up
// in the next. With zero or one pending chunk nothing is merged.
//
// On failure merging stops. Chunks not yet consumed stay in the store and
// in live; the partial output of the failed merge is discarded.
func (m *Merger) Reduce(ctx context.Context, pending []uint64, seq *chunkset.Sequence, live *chunkset.Set) (Result, error) {
	var res Result

	queue := slices.Clone(pending)
	for len(queue) > 1 {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		left, right := queue[0], queue[1]
		queue = queue[2:]
		out := seq.Next()

		records, err := m.Pair(ctx, left, right, out)
		if err != nil {
			return res, err
		}

		live.Add(out)
		for _, index := range [2]uint64{left, right} {
			if err := m.store.Remove(ctx, index); err != nil {
				return res, fmt.Errorf("remove merged chunk %s: %w", chunk.Name(index), err)
			}
			live.Remove(index)
		}

		queue = append(queue, out)
		res.Merges++
		res.Records = records
	}

	if len(queue) == 1 {
		res.Final = queue[0]
		res.OK = true
	}
	return res, nil
}

// Pair merges the sorted chunks left and right into a new chunk out and
// returns the number of records written. The inputs are left untouched.
func (m *Merger) Pair(ctx context.Context, left, right, out uint64) (records int64, err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		if m.cfg.OnMerge != nil {
			m.cfg.OnMerge(d, left, right, out, records, err)
		}
		if err == nil {
			m.cfg.Logger.DebugContext(ctx, "chunks merged",
				slog.Uint64("left", left),
				slog.Uint64("right", right),
				slog.Uint64("out", out),
				slog.Int64("records", records),
				slog.Duration("duration", d),
			)
		}
	}()

	l, err := m.store.Open(ctx, left)
	if err != nil {
		return 0, err
	}
	defer l.Close()

	r, err := m.store.Open(ctx, right)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	w, err := m.store.Create(ctx, out)
	if err != nil {
		return 0, err
	}

	if err := mergeInto(w, l, r); err != nil {
		_ = w.Abort()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return w.Records(), nil
}

// source is one sorted input stream holding a single head record.
type source interface {
	Next() (float64, error)
}

type sink interface {
	Write(v float64) error
}

// mergeInto writes the union of a and b to w in non-decreasing order.
// Ties take from a first.
func mergeInto(w sink, a, b source) error {
	va, errA := a.Next()
	vb, errB := b.Next()

	for errA == nil && errB == nil {
		if va <= vb {
			if err := w.Write(va); err != nil {
				return err
			}
			va, errA = a.Next()
		} else {
			if err := w.Write(vb); err != nil {
				return err
			}
			vb, errB = b.Next()
		}
	}

	if errA != nil && errA != io.EOF {
		return errA
	}
	if errB != nil && errB != io.EOF {
		return errB
	}

	for errA == nil {
		if err := w.Write(va); err != nil {
			return err
		}
		va, errA = a.Next()
	}
	for errB == nil {
		if err := w.Write(vb); err != nil {
			return err
		}
		vb, errB = b.Next()
	}

	if errA != io.EOF {
		return errA
	}
	if errB != io.EOF {
		return errB
	}
	return nil
}
