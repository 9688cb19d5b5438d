// Command spillsort sorts a file of newline-delimited decimal numbers that
// may be larger than memory.
//
// Usage:
//
//	spillsort [flags] <input> <output>
//
// Every flag can also be set with a SPILLSORT_* environment variable; run
// with -h for the list. The exit status is 0 on success, 1 if the sort
// failed and 2 on a usage error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/spillsort"
	"github.com/hupe1980/spillsort/blobstore"
	"github.com/hupe1980/spillsort/blobstore/minio"
	"github.com/hupe1980/spillsort/blobstore/s3"
	"github.com/hupe1980/spillsort/metrics/prometheus"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "spillsort: %v\n", err)
		return exitUsage
	}

	fs := flag.NewFlagSet("spillsort", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: spillsort [flags] <input> <output>")
		fs.PrintDefaults()
	}
	cfg.bind(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(stderr, "spillsort: invalid configuration: %v\n", err)
		return exitUsage
	}

	input, output := fs.Arg(0), fs.Arg(1)

	var logger *spillsort.Logger
	if cfg.LogJSON {
		logger = spillsort.NewJSONLoggerTo(stderr, cfg.level())
	} else {
		logger = spillsort.NewTextLoggerTo(stderr, cfg.level())
	}

	opts, err := sorterOptions(ctx, &cfg)
	if err != nil {
		fmt.Fprintf(stderr, "spillsort: %v\n", err)
		return exitFail
	}
	opts = append(opts, spillsort.WithLogger(logger))

	if cfg.MetricsAddr != "" {
		reg := prom.NewRegistry()
		opts = append(opts, spillsort.WithMetricsObserver(prometheus.NewObserver(prometheus.WithRegisterer(reg))))

		shutdown, err := serveMetrics(cfg.MetricsAddr, reg)
		if err != nil {
			fmt.Fprintf(stderr, "spillsort: metrics: %v\n", err)
			return exitFail
		}
		defer shutdown()
	}

	sorter, err := spillsort.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, "spillsort: %v\n", err)
		return exitUsage
	}

	stats, err := sorter.Sort(ctx, input, output)
	if err != nil {
		fmt.Fprintf(stderr, "spillsort: %v\n", err)
		return exitFail
	}

	fmt.Fprintf(stdout, "sorted %d records in %s (%d chunks, %d merges)\n",
		stats.Records, stats.Duration().Round(time.Millisecond), stats.Chunks, stats.Merges)
	return exitOK
}

func sorterOptions(ctx context.Context, cfg *config) ([]spillsort.Option, error) {
	compression, err := spillsort.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	opts := []spillsort.Option{
		spillsort.WithCompression(compression),
		spillsort.WithIOLimit(cfg.IOLimit),
		spillsort.WithMmap(cfg.Mmap),
	}
	if cfg.MemoryBytes > 0 {
		opts = append(opts, spillsort.WithMemoryBudget(cfg.MemoryBytes))
	}
	if cfg.Capacity > 0 {
		opts = append(opts, spillsort.WithChunkCapacity(cfg.Capacity))
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, spillsort.WithStore(store))
	} else {
		opts = append(opts, spillsort.WithWorkDir(cfg.WorkDir))
	}
	return opts, nil
}

// openStore returns nil for the local store, which the sorter builds itself.
func openStore(ctx context.Context, cfg *config) (blobstore.BlobStore, error) {
	switch cfg.Store {
	case "s3":
		s3Opts := []s3.Option{s3.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			s3Opts = append(s3Opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			s3Opts = append(s3Opts, s3.WithEndpoint(cfg.Endpoint))
		}
		return s3.New(ctx, cfg.Bucket, s3Opts...)
	case "minio":
		return minio.Dial(ctx, minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		})
	default:
		return nil, nil
	}
}

func serveMetrics(addr string, reg *prom.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
