package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/spillsort/internal/fs"
	"github.com/hupe1980/spillsort/internal/mmap"
)

const tmpSuffix = ".tmp"

// LocalStore implements BlobStore using a directory on the local file system.
type LocalStore struct {
	root string
	fs   fs.FileSystem
	mmap bool
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem routes all file access through fsys.
// Reads then go through fsys as well instead of being memory-mapped,
// so fault injection sees them.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		if fsys != nil {
			s.fs = fsys
			s.mmap = false
		}
	}
}

// WithMmap enables or disables memory-mapped reads.
func WithMmap(enabled bool) LocalOption {
	return func(s *LocalStore) {
		s.mmap = enabled
	}
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		root: root,
		fs:   fs.Default,
		mmap: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory the store is rooted at.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, name)
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	path := s.path(name)

	if s.mmap {
		m, err := mmap.Open(path)
		if err == nil {
			// Chunks are consumed front to back exactly once.
			_ = m.Advise(mmap.AccessSequential)
			return &mappedBlob{m: m}, nil
		}
		if !errors.Is(err, mmap.ErrUnsupported) {
			return nil, err
		}
	}

	f, err := fs.Open(s.fs, path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileBlob{f: f, size: fi.Size()}, nil
}

// Create creates a new blob. Data is written to a temporary file that is
// renamed onto name when the blob is closed.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return nil, err
	}

	path := s.path(name)
	tmpPath := path + tmpSuffix

	f, err := fs.Create(s.fs, tmpPath)
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{
		fs:      s.fs,
		f:       f,
		path:    path,
		tmpPath: tmpPath,
	}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	if err := w.Sync(); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(s.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all blobs matching the prefix. In-flight temporary files are skipped.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, tmpSuffix) || !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type mappedBlob struct {
	m *mmap.Mapping
}

func (b *mappedBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *mappedBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(io.NewSectionReader(b.m, off, length)), nil
}

func (b *mappedBlob) Close() error {
	return b.m.Close()
}

func (b *mappedBlob) Size() int64 {
	return int64(b.m.Size())
}

// Bytes exposes the mapped region without copying.
func (b *mappedBlob) Bytes() []byte {
	return b.m.Bytes()
}

type fileBlob struct {
	f    fs.File
	size int64
}

func (b *fileBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return b.f.ReadAt(p, off)
}

func (b *fileBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(io.NewSectionReader(b.f, off, length)), nil
}

func (b *fileBlob) Close() error {
	return b.f.Close()
}

func (b *fileBlob) Size() int64 {
	return b.size
}

type localWritableBlob struct {
	fs      fs.FileSystem
	f       fs.File
	path    string
	tmpPath string
	done    bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.done {
		return 0, os.ErrClosed
	}
	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	if w.done {
		return os.ErrClosed
	}
	return w.f.Sync()
}

// Close publishes the blob under its final name.
func (w *localWritableBlob) Close() error {
	if w.done {
		return os.ErrClosed
	}
	w.done = true

	if err := w.f.Close(); err != nil {
		_ = w.fs.Remove(w.tmpPath) // Intentionally ignore: best-effort cleanup
		return err
	}
	if err := w.fs.Rename(w.tmpPath, w.path); err != nil {
		_ = w.fs.Remove(w.tmpPath) // Intentionally ignore: best-effort cleanup
		return err
	}
	return nil
}

func (w *localWritableBlob) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close() // Intentionally ignore: the file is discarded
	err := w.fs.Remove(w.tmpPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
