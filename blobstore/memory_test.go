package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w, err := store.Create(ctx, "sorted_1.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)

	_, err = store.Open(ctx, "sorted_1.bin")
	require.ErrorIs(t, err, ErrNotFound, "blob must not be visible before Close")

	require.NoError(t, w.Close())
	_, err = w.Write([]byte("more"))
	require.Error(t, err)

	blob, err := store.Open(ctx, "sorted_1.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(10), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := blob.ReadRange(ctx, 2, 3)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "234", string(content))

	aborted, err := store.Create(ctx, "sorted_2.bin")
	require.NoError(t, err)
	_, err = aborted.Write([]byte("gone"))
	require.NoError(t, err)
	require.NoError(t, aborted.Abort())

	require.NoError(t, store.Put(ctx, "sorted_0.bin", nil))
	names, err := store.List(ctx, "sorted_")
	require.NoError(t, err)
	assert.Equal(t, []string{"sorted_0.bin", "sorted_1.bin"}, names)
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Delete(ctx, "sorted_1.bin"))
	require.NoError(t, store.Delete(ctx, "sorted_1.bin"))
	assert.Equal(t, 1, store.Len())
}
