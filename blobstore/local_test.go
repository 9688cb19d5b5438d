package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/spillsort/internal/fs"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []LocalOption
	}{
		{name: "mmap"},
		{name: "file", opts: []LocalOption{WithMmap(false)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			store := NewLocalStore(tmpDir, tc.opts...)
			ctx := context.Background()

			blobName := "sorted_0.bin"
			data := []byte("hello world, this is a test blob for spillsort")

			w, err := store.Create(ctx, blobName)
			require.NoError(t, err)

			n, err := w.Write(data)
			require.NoError(t, err)
			require.Equal(t, len(data), n)

			// Not visible until closed.
			_, err = os.Stat(filepath.Join(tmpDir, blobName))
			require.ErrorIs(t, err, os.ErrNotExist)
			names, err := store.List(ctx, "")
			require.NoError(t, err)
			require.Empty(t, names)

			require.NoError(t, w.Close())

			_, err = os.Stat(filepath.Join(tmpDir, blobName))
			require.NoError(t, err)

			blob, err := store.Open(ctx, blobName)
			require.NoError(t, err)
			defer blob.Close()

			require.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err = blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			require.Equal(t, 5, n)
			require.Equal(t, "world", string(buf))

			rc, err := blob.ReadRange(ctx, 13, 4)
			require.NoError(t, err)
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			require.Equal(t, "this", string(content))

			rc, err = NewReader(ctx, blob)
			require.NoError(t, err)
			content, err = io.ReadAll(rc)
			require.NoError(t, err)
			require.Equal(t, data, content)

			require.NoError(t, store.Put(ctx, "sorted_1.bin", []byte("x")))
			require.NoError(t, store.Put(ctx, "other.txt", []byte("y")))

			names, err = store.List(ctx, "sorted_")
			require.NoError(t, err)
			require.Equal(t, []string{"sorted_0.bin", "sorted_1.bin"}, names)

			require.NoError(t, store.Delete(ctx, blobName))
			require.NoError(t, store.Delete(ctx, blobName), "deleting a missing blob is a no-op")

			names, err = store.List(ctx, "sorted_")
			require.NoError(t, err)
			require.Equal(t, []string{"sorted_1.bin"}, names)

			_, err = store.Open(ctx, blobName)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLocalBlobStore_Abort(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	w, err := store.Create(ctx, "sorted_7.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLocalBlobStore_EmptyBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty.bin", nil))

	blob, err := store.Open(ctx, "empty.bin")
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(0), blob.Size())
	rc, err := NewReader(ctx, blob)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestLocalBlobStore_FaultInjection(t *testing.T) {
	tmpDir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("sorted_3.bin", fs.Fault{FailAfterBytes: 4})
	store := NewLocalStore(tmpDir, WithFileSystem(ffs))
	ctx := context.Background()

	w, err := store.Create(ctx, "sorted_3.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("12345678"))
	require.ErrorIs(t, err, fs.ErrInjected)
	require.NoError(t, w.Abort())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, names)

	// Reads go through the injected filesystem as well.
	require.NoError(t, store.Put(ctx, "sorted_4.bin", []byte("abcdefgh")))
	blob, err := store.Open(ctx, "sorted_4.bin")
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	require.Equal(t, 1, ffs.Opens("sorted_4.bin.tmp"))
	require.Equal(t, 2, ffs.Opens("sorted_4.bin")) // create + open
}

func TestLocalBlobStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, names)
}
