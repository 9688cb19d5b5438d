// Package prometheus exports sort run metrics to Prometheus.
//
//	observer := prometheus.NewObserver()
//	sorter, err := spillsort.New(spillsort.WithMetricsObserver(observer))
//	http.Handle("/metrics", promhttp.Handler())
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/spillsort"
)

const namespace = "spillsort"

// Observer implements spillsort.MetricsObserver with Prometheus collectors.
type Observer struct {
	phaseLatency   *prom.HistogramVec
	mergeLatency   *prom.HistogramVec
	chunks         prom.Counter
	chunkRecords   prom.Counter
	chunkBytes     prom.Counter
	mergedRecords  prom.Counter
	throughput     *prom.CounterVec
	lastChunkIndex prom.Gauge
}

type options struct {
	registerer  prom.Registerer
	constLabels prom.Labels
}

// Option configures NewObserver.
type Option func(*options)

// WithRegisterer registers the collectors with r instead of the default
// registerer.
func WithRegisterer(r prom.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithConstLabels attaches labels to every collector, e.g. a job name.
func WithConstLabels(labels prom.Labels) Option {
	return func(o *options) {
		o.constLabels = labels
	}
}

// NewObserver creates an Observer and registers its collectors.
// It panics if registration fails, like prometheus.MustRegister.
func NewObserver(optFns ...Option) *Observer {
	opts := options{registerer: prom.DefaultRegisterer}
	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Observer{
		phaseLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace:   namespace,
			Name:        "phase_duration_seconds",
			Help:        "Duration of sort phases",
			ConstLabels: opts.constLabels,
			Buckets:     prom.ExponentialBuckets(0.001, 4, 12),
		}, []string{"phase", "status"}),
		mergeLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace:   namespace,
			Name:        "merge_duration_seconds",
			Help:        "Duration of two-way chunk merges",
			ConstLabels: opts.constLabels,
			Buckets:     prom.DefBuckets,
		}, []string{"status"}),
		chunks: prom.NewCounter(prom.CounterOpts{
			Namespace:   namespace,
			Name:        "chunks_produced_total",
			Help:        "Chunks written by the produce phase",
			ConstLabels: opts.constLabels,
		}),
		chunkRecords: prom.NewCounter(prom.CounterOpts{
			Namespace:   namespace,
			Name:        "records_produced_total",
			Help:        "Records read from inputs",
			ConstLabels: opts.constLabels,
		}),
		chunkBytes: prom.NewCounter(prom.CounterOpts{
			Namespace:   namespace,
			Name:        "chunk_bytes_total",
			Help:        "Stored bytes of produced chunks",
			ConstLabels: opts.constLabels,
		}),
		mergedRecords: prom.NewCounter(prom.CounterOpts{
			Namespace:   namespace,
			Name:        "merged_records_total",
			Help:        "Records written by merges",
			ConstLabels: opts.constLabels,
		}),
		throughput: prom.NewCounterVec(prom.CounterOpts{
			Namespace:   namespace,
			Name:        "bytes_total",
			Help:        "Bytes processed",
			ConstLabels: opts.constLabels,
		}, []string{"name"}),
		lastChunkIndex: prom.NewGauge(prom.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_chunk_index",
			Help:        "Index of the most recently produced chunk",
			ConstLabels: opts.constLabels,
		}),
	}

	opts.registerer.MustRegister(
		o.phaseLatency,
		o.mergeLatency,
		o.chunks,
		o.chunkRecords,
		o.chunkBytes,
		o.mergedRecords,
		o.throughput,
		o.lastChunkIndex,
	)

	return o
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnChunkProduced implements spillsort.MetricsObserver.
func (o *Observer) OnChunkProduced(index uint64, records int, bytes int64) {
	o.chunks.Inc()
	o.chunkRecords.Add(float64(records))
	o.chunkBytes.Add(float64(bytes))
	o.lastChunkIndex.Set(float64(index))
}

// OnMerge implements spillsort.MetricsObserver.
func (o *Observer) OnMerge(d time.Duration, _, _, _ uint64, records int64, err error) {
	o.mergeLatency.WithLabelValues(status(err)).Observe(d.Seconds())
	if err == nil {
		o.mergedRecords.Add(float64(records))
	}
}

// OnPhase implements spillsort.MetricsObserver.
func (o *Observer) OnPhase(phase spillsort.Phase, d time.Duration, err error) {
	o.phaseLatency.WithLabelValues(phase.String(), status(err)).Observe(d.Seconds())
}

// OnThroughput implements spillsort.MetricsObserver.
func (o *Observer) OnThroughput(name string, bytes int64) {
	if bytes > 0 {
		o.throughput.WithLabelValues(name).Add(float64(bytes))
	}
}

var _ spillsort.MetricsObserver = (*Observer)(nil)
