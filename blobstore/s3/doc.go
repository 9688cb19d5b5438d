// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("spill/run-42/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	sorter, err := spillsort.New(spillsort.WithStore(store))
//
// # Features
//
//   - Range reads, so a merge streams each chunk with a single GET
//   - Multipart uploads via the s3 manager for chunks larger than one part
//   - Automatic pagination for listing
//   - Configurable prefix to keep concurrent runs apart
package s3
