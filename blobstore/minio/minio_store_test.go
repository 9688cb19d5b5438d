package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/spillsort/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ blobstore.BlobStore = (*Store)(nil)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("SPILLSORT_MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	ctx := context.Background()

	store, err := Dial(ctx, Config{
		Endpoint:     endpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "test-spillsort",
		Prefix:       "test-prefix/",
		CreateBucket: true,
	})
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	data := []byte("0123456789abcdef")
	require.NoError(t, store.Put(ctx, "sorted_0.bin", data))

	blob, err := store.Open(ctx, "sorted_0.bin")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 14)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := blob.ReadRange(ctx, 4, 4)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "4567", string(got))

	w, err := store.Create(ctx, "sorted_1.bin")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	aborted, err := store.Create(ctx, "sorted_2.bin")
	require.NoError(t, err)
	_, err = aborted.Write(data)
	require.NoError(t, err)
	require.NoError(t, aborted.Abort())

	_, err = store.Open(ctx, "sorted_2.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	names, err := store.List(ctx, "sorted_")
	require.NoError(t, err)
	assert.Equal(t, []string{"sorted_0.bin", "sorted_1.bin"}, names)

	require.NoError(t, store.Delete(ctx, "sorted_0.bin"))
	require.NoError(t, store.Delete(ctx, "sorted_1.bin"))
	require.NoError(t, store.Delete(ctx, "sorted_1.bin"))

	_, err = store.Open(ctx, "sorted_0.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
