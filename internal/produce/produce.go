// Package produce splits unsorted input into sorted chunks.
package produce

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/hupe1980/spillsort/internal/chunk"
	"github.com/hupe1980/spillsort/internal/chunkset"
	"github.com/hupe1980/spillsort/internal/textio"
	"github.com/hupe1980/spillsort/resource"
)

// ErrInvalidCapacity is returned for a non-positive batch capacity.
var ErrInvalidCapacity = errors.New("produce: capacity must be positive")

// Config configures a Producer.
type Config struct {
	// Capacity is the maximum number of records sorted in memory at once.
	Capacity int
	// Controller reserves the batch buffer (Capacity * 8 bytes) for the
	// duration of the phase. Nil means unlimited.
	Controller *resource.Controller
	// Logger receives per-chunk debug records. Nil discards them.
	Logger *slog.Logger
	// OnChunk is called after each chunk is committed.
	OnChunk func(index uint64, records int, bytes int64)
}

// Result summarizes a produce phase.
type Result struct {
	// Records is the number of records read from the input.
	Records int64
	// Chunks lists the produced chunk indices in creation order.
	Chunks []uint64
	// Bytes is the stored size of all produced chunks.
	Bytes int64
}

// Producer turns an input text into sorted chunks.
type Producer struct {
	store *chunk.Store
	cfg   Config
}

// New returns a Producer writing into store.
func New(store *chunk.Store, cfg Config) *Producer {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Producer{store: store, cfg: cfg}
}

// Produce reads r to the end. Every full batch, and the final partial batch
// if it is not empty, is sorted and written as one chunk at the next index of
// seq. Each committed chunk is added to live.
//
// If the input is malformed or unreadable the chunks produced so far are
// removed again and the scanner's error is returned.
func (p *Producer) Produce(ctx context.Context, r io.Reader, seq *chunkset.Sequence, live *chunkset.Set) (Result, error) {
	var res Result

	if p.cfg.Capacity <= 0 {
		return res, ErrInvalidCapacity
	}

	reserved := int64(p.cfg.Capacity) * chunk.RecordSize
	if err := p.cfg.Controller.AcquireMemory(ctx, reserved); err != nil {
		return res, err
	}
	defer p.cfg.Controller.ReleaseMemory(reserved)

	batch := make([]float64, 0, p.cfg.Capacity)
	sc := textio.NewScanner(r)

	for sc.Scan() {
		batch = append(batch, sc.Value())
		res.Records++

		if len(batch) < p.cfg.Capacity {
			continue
		}
		if err := p.flush(ctx, batch, seq, live, &res); err != nil {
			return res, err
		}
		batch = batch[:0]

		if err := ctx.Err(); err != nil {
			return res, err
		}
	}

	if err := sc.Err(); err != nil {
		p.discard(ctx, res.Chunks, live)
		res.Chunks = nil
		return res, err
	}

	if len(batch) > 0 {
		if err := p.flush(ctx, batch, seq, live, &res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (p *Producer) flush(ctx context.Context, batch []float64, seq *chunkset.Sequence, live *chunkset.Set, res *Result) error {
	slices.Sort(batch)

	index := seq.Next()
	w, err := p.store.Create(ctx, index)
	if err != nil {
		return err
	}
	if err := w.WriteAll(batch); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	live.Add(index)
	res.Chunks = append(res.Chunks, index)
	res.Bytes += w.Bytes()

	p.cfg.Logger.DebugContext(ctx, "chunk produced",
		slog.Uint64("index", index),
		slog.Int("records", len(batch)),
		slog.Int64("bytes", w.Bytes()),
	)
	if p.cfg.OnChunk != nil {
		p.cfg.OnChunk(index, len(batch), w.Bytes())
	}
	return nil
}

// discard removes chunks of a failed phase. Failures are logged and ignored.
func (p *Producer) discard(ctx context.Context, indices []uint64, live *chunkset.Set) {
	for _, index := range indices {
		if err := p.store.Remove(ctx, index); err != nil {
			p.cfg.Logger.WarnContext(ctx, "failed to remove chunk",
				slog.Uint64("index", index),
				slog.String("error", err.Error()),
			)
			continue
		}
		live.Remove(index)
	}
}
