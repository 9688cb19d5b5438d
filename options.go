package spillsort

import (
	"log/slog"

	"github.com/hupe1980/spillsort/blobstore"
	"github.com/hupe1980/spillsort/internal/chunk"
	"github.com/hupe1980/spillsort/internal/fs"
	"github.com/hupe1980/spillsort/resource"
)

// DefaultChunkCapacity is the number of records sorted in memory per chunk:
// 100 MB of float64 values.
const DefaultChunkCapacity = 100_000_000 / chunk.RecordSize

// Compression selects the block codec for chunk files.
type Compression = chunk.Compression

const (
	// CompressionNone stores chunks as raw 8-byte little-endian records.
	CompressionNone = chunk.CompressionNone
	// CompressionLZ4 stores chunks as LZ4-compressed blocks.
	CompressionLZ4 = chunk.CompressionLZ4
	// CompressionZSTD stores chunks as ZSTD-compressed blocks.
	CompressionZSTD = chunk.CompressionZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return chunk.ParseCompression(s)
}

type options struct {
	capacity        int
	store           blobstore.BlobStore
	workDir         string
	mmap            bool
	compression     Compression
	blockSize       int
	logger          *Logger
	metricsObserver MetricsObserver
	controller      *resource.Controller
	ioLimit         int64
	fsys            fs.FileSystem
	formatVerb      byte
	formatPrec      int
}

// Option configures a Sorter.
type Option func(*options)

// WithChunkCapacity sets the maximum number of records sorted in memory per
// chunk. Peak producer memory is capacity * 8 bytes.
func WithChunkCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithMemoryBudget derives the chunk capacity from a byte budget for the
// in-memory batch (bytes / 8 records).
func WithMemoryBudget(bytes int64) Option {
	return func(o *options) {
		o.capacity = int(bytes / chunk.RecordSize)
	}
}

// WithStore stores chunk files in s instead of the work directory.
//
// Example:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("spill/"))
//	sorter, _ := spillsort.New(spillsort.WithStore(store))
func WithStore(s blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithWorkDir sets the directory that holds chunk files when no store is
// configured. Default: the current working directory.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		o.workDir = dir
	}
}

// WithMmap enables or disables memory mapped reads of local chunk files.
// Default: enabled where the platform supports it.
func WithMmap(enabled bool) Option {
	return func(o *options) {
		o.mmap = enabled
	}
}

// WithCompression sets the chunk codec. Default: CompressionNone.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithBlockSize sets the uncompressed block size of compressed chunks.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithLogger sets a custom logger.
// If nil is passed, logging is disabled (NoopLogger).
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel sets up a text logger on stderr with the given minimum level.
//
//	sorter, _ := spillsort.New(spillsort.WithLogLevel(slog.LevelDebug))
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsObserver sets the observer notified about chunk, merge and
// phase events. If nil is passed, NoopMetricsObserver is used.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsObserver{}
		}
		o.metricsObserver = m
	}
}

// WithResourceController shares a resource controller between sorters.
// It takes precedence over WithIOLimit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithIOLimit caps chunk read and write throughput in bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithFileSystem sets the file system used for the input, the output and
// local chunk files.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fsys = fsys
	}
}

// WithFloatFormat sets how output values are rendered, using the verb and
// precision of strconv.FormatFloat. Default: 'g', -1 (shortest exact).
func WithFloatFormat(verb byte, prec int) Option {
	return func(o *options) {
		o.formatVerb = verb
		o.formatPrec = prec
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		capacity:        DefaultChunkCapacity,
		workDir:         ".",
		mmap:            true,
		compression:     CompressionNone,
		logger:          NoopLogger(),
		metricsObserver: NoopMetricsObserver{},
		fsys:            fs.Default,
		formatVerb:      'g',
		formatPrec:      -1,
	}

	for _, fn := range optFns {
		fn(&o)
	}

	return o
}
