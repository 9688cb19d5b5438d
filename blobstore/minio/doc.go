// Package minio provides a BlobStore backed by MinIO or any other
// S3-compatible object store reachable through the MinIO client.
//
//	store, err := minio.Dial(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "spill",
//	    Prefix:    "run-42/",
//	})
//
// Chunks are uploaded as a stream of unknown length, so a producer never
// buffers a whole chunk to learn its size.
package minio
