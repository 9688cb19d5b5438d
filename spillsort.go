package spillsort

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/spillsort/blobstore"
	"github.com/hupe1980/spillsort/internal/chunk"
	"github.com/hupe1980/spillsort/internal/chunkset"
	"github.com/hupe1980/spillsort/internal/finalize"
	"github.com/hupe1980/spillsort/internal/fs"
	"github.com/hupe1980/spillsort/internal/merge"
	"github.com/hupe1980/spillsort/internal/produce"
	"github.com/hupe1980/spillsort/internal/sorterr"
	"github.com/hupe1980/spillsort/internal/textio"
	"github.com/hupe1980/spillsort/resource"
)

// Stats describes a finished (or failed) sort run.
type Stats struct {
	// Records is the number of records read from the input.
	Records int64
	// Chunks is the number of chunks the produce phase wrote.
	Chunks int
	// Merges is the number of two-way merges performed.
	Merges int
	// IndicesIssued is the number of chunk indices handed out.
	IndicesIssued uint64
	// LastIndex is the highest chunk index handed out. Only valid if
	// IndicesIssued > 0.
	LastIndex uint64
	// ChunkBytes is the stored size of the produced chunks.
	ChunkBytes int64
	// OutputBytes is the size of the committed output.
	OutputBytes int64

	ProduceDuration  time.Duration
	MergeDuration    time.Duration
	FinalizeDuration time.Duration
}

// Duration returns the total time spent in all phases.
func (s Stats) Duration() time.Duration {
	return s.ProduceDuration + s.MergeDuration + s.FinalizeDuration
}

// Sorter runs external merge sorts with a fixed configuration.
// A Sorter may be reused for sequential runs; runs sharing a chunk store
// must not overlap.
type Sorter struct {
	opts   options
	format textio.Format
	store  *chunk.Store
}

// New creates a Sorter.
func New(optFns ...Option) (*Sorter, error) {
	o := applyOptions(optFns)

	if o.capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	format := textio.Format{Verb: o.formatVerb, Prec: o.formatPrec}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	if o.controller == nil && o.ioLimit > 0 {
		o.controller = resource.NewController(resource.Config{
			IOLimitBytesPerSec: o.ioLimit,
		})
	}

	blobs := o.store
	if blobs == nil {
		localOpts := []blobstore.LocalOption{blobstore.WithMmap(o.mmap)}
		if o.fsys != fs.Default {
			localOpts = append(localOpts, blobstore.WithFileSystem(o.fsys))
		}
		blobs = blobstore.NewLocalStore(o.workDir, localOpts...)
	}

	store := chunk.NewStore(blobs, chunk.Config{
		Compression: o.compression,
		BlockSize:   o.blockSize,
		Controller:  o.controller,
	})

	return &Sorter{
		opts:   o,
		format: format,
		store:  store,
	}, nil
}

// SortFile sorts the file at input into output with a one-off Sorter.
//
// Example:
//
//	stats, err := spillsort.SortFile(ctx, "unsorted.txt", "sorted.txt",
//	    spillsort.WithMemoryBudget(64<<20),
//	)
func SortFile(ctx context.Context, input, output string, optFns ...Option) (Stats, error) {
	s, err := New(optFns...)
	if err != nil {
		return Stats{}, err
	}
	return s.Sort(ctx, input, output)
}

// Sort reads newline-delimited decimal numbers from the file at input and
// writes them in ascending order to output, one per line.
//
// Any failure is returned as a *PhaseError naming the phase; the typed cause
// (*InputOpenError, *ParseError, *ChunkOpenError, ...) is reachable with
// errors.As. The output file is only created if the run succeeds.
func (s *Sorter) Sort(ctx context.Context, input, output string) (Stats, error) {
	f, err := fs.Open(s.opts.fsys, input)
	if err != nil {
		err = sorterr.InPhase(PhaseProduce, &InputOpenError{Path: input, Err: err})
		s.opts.metricsObserver.OnPhase(PhaseProduce, 0, err)
		s.opts.logger.LogRun(ctx, input, output, Stats{}, err)
		return Stats{}, err
	}
	defer func() { _ = f.Close() }()

	stats, err := s.run(ctx, f, output)
	s.opts.logger.LogRun(ctx, input, output, stats, err)
	return stats, err
}

// SortReader is like Sort but reads the unsorted input from r.
func (s *Sorter) SortReader(ctx context.Context, r io.Reader, output string) (Stats, error) {
	stats, err := s.run(ctx, r, output)
	s.opts.logger.LogRun(ctx, "-", output, stats, err)
	return stats, err
}

func (s *Sorter) run(ctx context.Context, r io.Reader, output string) (stats Stats, err error) {
	seq := chunkset.NewSequence(0)
	live := chunkset.New()
	defer func() {
		stats.IndicesIssued = seq.Issued()
		stats.LastIndex, _ = seq.Last()
	}()

	s.warnStale(ctx)

	logger := s.opts.logger
	observer := s.opts.metricsObserver

	// Produce.
	start := time.Now()
	produced, err := produce.New(s.store, produce.Config{
		Capacity:   s.opts.capacity,
		Controller: s.opts.controller,
		Logger:     logger.WithPhase(PhaseProduce).Logger,
		OnChunk:    observer.OnChunkProduced,
	}).Produce(ctx, r, seq, live)
	stats.ProduceDuration = time.Since(start)
	stats.Records = produced.Records
	stats.Chunks = len(produced.Chunks)
	stats.ChunkBytes = produced.Bytes
	err = sorterr.InPhase(PhaseProduce, err)
	observer.OnPhase(PhaseProduce, stats.ProduceDuration, err)
	observer.OnThroughput("chunk_write", produced.Bytes)
	logger.LogProduce(ctx, produced.Records, len(produced.Chunks), err)
	if err != nil {
		return stats, err
	}

	// Merge.
	start = time.Now()
	merged, err := merge.New(s.store, merge.Config{
		Logger:  logger.WithPhase(PhaseMerge).Logger,
		OnMerge: observer.OnMerge,
	}).Reduce(ctx, produced.Chunks, seq, live)
	stats.MergeDuration = time.Since(start)
	stats.Merges = merged.Merges
	err = sorterr.InPhase(PhaseMerge, err)
	observer.OnPhase(PhaseMerge, stats.MergeDuration, err)
	logger.LogMerge(ctx, merged.Merges, merged.Final, err)
	if err != nil {
		logger.WarnContext(ctx, "chunks left in store",
			slog.String("chunks", live.String()),
		)
		return stats, err
	}

	// Finalize.
	start = time.Now()
	final, err := finalize.New(s.store, finalize.Config{
		Format: s.format,
		FS:     s.opts.fsys,
		Logger: logger.WithPhase(PhaseFinalize).Logger,
	}).Finalize(ctx, output, live)
	stats.FinalizeDuration = time.Since(start)
	stats.OutputBytes = final.Bytes
	err = sorterr.InPhase(PhaseFinalize, err)
	observer.OnPhase(PhaseFinalize, stats.FinalizeDuration, err)
	observer.OnThroughput("output_write", final.Bytes)
	logger.LogFinalize(ctx, output, final.Records, err)
	if err != nil {
		return stats, err
	}

	if !live.IsEmpty() {
		return stats, sorterr.InPhase(PhaseFinalize, fmt.Errorf("%w: %v", ErrLeakedChunks, live))
	}
	return stats, nil
}

// warnStale logs chunks left behind by an earlier, aborted run. They are not
// resumed; a chunk whose index is reused is overwritten.
func (s *Sorter) warnStale(ctx context.Context) {
	stale, err := s.store.List(ctx)
	if err != nil {
		s.opts.logger.WarnContext(ctx, "failed to list chunk store", slog.String("error", err.Error()))
		return
	}
	if len(stale) > 0 {
		s.opts.logger.WarnContext(ctx, "stale chunks in store",
			slog.Int("count", len(stale)),
			slog.Uint64("first", stale[0]),
			slog.Uint64("last", stale[len(stale)-1]),
		)
	}
}
