// Package finalize renders the last surviving chunk as the sorted text output.
package finalize

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/hupe1980/spillsort/internal/chunk"
	"github.com/hupe1980/spillsort/internal/chunkset"
	"github.com/hupe1980/spillsort/internal/fs"
	"github.com/hupe1980/spillsort/internal/sorterr"
	"github.com/hupe1980/spillsort/internal/textio"
)

const writeBufferSize = 64 * 1024

// Config configures a Finalizer.
type Config struct {
	// Format renders each record. Zero value means textio.DefaultFormat.
	Format textio.Format
	// FS is where the output file is written. Nil means the local disk.
	FS fs.FileSystem
	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger
}

// Result summarizes a finalize phase.
type Result struct {
	Records int64
	Bytes   int64
}

// Finalizer writes the output file.
type Finalizer struct {
	store *chunk.Store
	cfg   Config
}

// New returns a Finalizer reading from store.
func New(store *chunk.Store, cfg Config) *Finalizer {
	if cfg.Format == (textio.Format{}) {
		cfg.Format = textio.DefaultFormat
	}
	if cfg.FS == nil {
		cfg.FS = fs.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Finalizer{store: store, cfg: cfg}
}

// Finalize writes the records of the single live chunk to path, one per
// line, and then removes the chunk. With no live chunk an empty file is
// written. More than one live chunk is an error.
//
// The text is written to path+".tmp" and renamed onto path once complete,
// so path never holds a partial result.
func (f *Finalizer) Finalize(ctx context.Context, path string, live *chunkset.Set) (Result, error) {
	var res Result

	if live.Len() > 1 {
		return res, fmt.Errorf("%d live chunks %v, want at most 1", live.Len(), live)
	}

	var src *chunk.Reader
	if !live.IsEmpty() {
		index, _ := live.Only()
		r, err := f.store.Open(ctx, index)
		if err != nil {
			return res, err
		}
		defer r.Close()
		src = r
	}

	res, err := f.commit(path, src)
	if err != nil {
		return res, err
	}

	if src != nil {
		if err := f.store.Remove(ctx, src.Index()); err != nil {
			return res, fmt.Errorf("remove final chunk %s: %w", src.Name(), err)
		}
		live.Remove(src.Index())
	}

	f.cfg.Logger.DebugContext(ctx, "output committed",
		slog.String("path", path),
		slog.Int64("records", res.Records),
		slog.Int64("bytes", res.Bytes),
	)
	return res, nil
}

func (f *Finalizer) commit(path string, src *chunk.Reader) (res Result, err error) {
	tmp := path + ".tmp"

	file, err := fs.Create(f.cfg.FS, tmp)
	if err != nil {
		return res, &sorterr.OutputError{Path: path, Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			_ = file.Close()
			_ = f.cfg.FS.Remove(tmp)
		}
	}()

	bw := bufio.NewWriterSize(file, writeBufferSize)
	if src != nil {
		var line []byte
		for {
			v, rerr := src.Next()
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				return res, rerr
			}
			line = f.cfg.Format.AppendLine(line[:0], v)
			if _, werr := bw.Write(line); werr != nil {
				return res, &sorterr.OutputError{Path: path, Err: werr}
			}
			res.Records++
			res.Bytes += int64(len(line))
		}
	}

	if err := bw.Flush(); err != nil {
		return res, &sorterr.OutputError{Path: path, Err: err}
	}
	if err := file.Sync(); err != nil {
		return res, &sorterr.OutputError{Path: path, Err: err}
	}

	committed = true
	if err := file.Close(); err != nil {
		_ = f.cfg.FS.Remove(tmp)
		return res, &sorterr.OutputError{Path: path, Err: err}
	}
	if err := f.cfg.FS.Rename(tmp, path); err != nil {
		_ = f.cfg.FS.Remove(tmp)
		return res, &sorterr.OutputError{Path: path, Err: err}
	}

	// Best effort: persist the rename.
	_ = fs.SyncDir(f.cfg.FS, filepath.Dir(path))
	return res, nil
}
