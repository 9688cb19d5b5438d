package spillsort

import (
	"sync/atomic"
	"time"
)

// MetricsObserver defines the interface for observing sort events.
// Implement this interface to integrate with monitoring systems; see the
// metrics/prometheus package for a Prometheus implementation.
type MetricsObserver interface {
	// OnChunkProduced is called after the produce phase commits a chunk.
	OnChunkProduced(index uint64, records int, bytes int64)

	// OnMerge is called after every two-way merge, successful or not.
	OnMerge(duration time.Duration, left, right, out uint64, records int64, err error)

	// OnPhase is called when a phase ends.
	OnPhase(phase Phase, duration time.Duration, err error)

	// OnThroughput reports bytes processed.
	OnThroughput(name string, bytes int64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnChunkProduced(uint64, int, int64)                          {}
func (NoopMetricsObserver) OnMerge(time.Duration, uint64, uint64, uint64, int64, error) {}
func (NoopMetricsObserver) OnPhase(Phase, time.Duration, error)                         {}
func (NoopMetricsObserver) OnThroughput(string, int64)                                  {}

// BasicMetricsObserver provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsObserver struct {
	ChunksProduced  atomic.Int64
	RecordsProduced atomic.Int64
	ChunkBytes      atomic.Int64
	MergeCount      atomic.Int64
	MergeErrors     atomic.Int64
	MergeTotalNanos atomic.Int64
	PhaseErrors     atomic.Int64
	ThroughputBytes atomic.Int64

	phaseNanos [PhaseFinalize + 1]atomic.Int64
}

// OnChunkProduced implements MetricsObserver.
func (b *BasicMetricsObserver) OnChunkProduced(_ uint64, records int, bytes int64) {
	b.ChunksProduced.Add(1)
	b.RecordsProduced.Add(int64(records))
	b.ChunkBytes.Add(bytes)
}

// OnMerge implements MetricsObserver.
func (b *BasicMetricsObserver) OnMerge(duration time.Duration, _, _, _ uint64, _ int64, err error) {
	b.MergeCount.Add(1)
	b.MergeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// OnPhase implements MetricsObserver.
func (b *BasicMetricsObserver) OnPhase(phase Phase, duration time.Duration, err error) {
	if int(phase) < len(b.phaseNanos) {
		b.phaseNanos[phase].Add(duration.Nanoseconds())
	}
	if err != nil {
		b.PhaseErrors.Add(1)
	}
}

// OnThroughput implements MetricsObserver.
func (b *BasicMetricsObserver) OnThroughput(_ string, bytes int64) {
	b.ThroughputBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsObserver) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ChunksProduced:  b.ChunksProduced.Load(),
		RecordsProduced: b.RecordsProduced.Load(),
		ChunkBytes:      b.ChunkBytes.Load(),
		MergeCount:      b.MergeCount.Load(),
		MergeErrors:     b.MergeErrors.Load(),
		MergeAvgNanos:   b.getAvgMergeNanos(),
		PhaseErrors:     b.PhaseErrors.Load(),
		ThroughputBytes: b.ThroughputBytes.Load(),
		ProduceNanos:    b.phaseNanos[PhaseProduce].Load(),
		MergeNanos:      b.phaseNanos[PhaseMerge].Load(),
		FinalizeNanos:   b.phaseNanos[PhaseFinalize].Load(),
	}
}

func (b *BasicMetricsObserver) getAvgMergeNanos() int64 {
	count := b.MergeCount.Load()
	if count == 0 {
		return 0
	}
	return b.MergeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsObserver state.
type BasicMetricsStats struct {
	ChunksProduced  int64
	RecordsProduced int64
	ChunkBytes      int64
	MergeCount      int64
	MergeErrors     int64
	MergeAvgNanos   int64
	PhaseErrors     int64
	ThroughputBytes int64
	ProduceNanos    int64
	MergeNanos      int64
	FinalizeNanos   int64
}
