// Package spillsort sorts newline-delimited decimal numbers that do not fit
// in memory, using an external merge sort with a bounded memory footprint.
//
// # Quick Start
//
//	stats, err := spillsort.SortFile(ctx, "unsorted.txt", "sorted.txt")
//	if err != nil {
//	    var pe *spillsort.ParseError
//	    if errors.As(err, &pe) {
//	        log.Fatalf("bad input on line %d", pe.Line)
//	    }
//	    log.Fatal(err)
//	}
//	fmt.Println(stats.Records, "records sorted")
//
// # How it works
//
// A run has three phases:
//
//  1. Produce: the input is read in batches of at most the chunk capacity.
//     Each batch is sorted in memory and written as a chunk file
//     (sorted_<index>.bin) of 8-byte little-endian float64 records.
//  2. Merge: chunk indices form a FIFO queue. The first two are merged into
//     a new chunk at the next index, both inputs are deleted, and the result
//     is queued. A chunk without a partner is carried into the next round.
//     The phase ends when one chunk remains.
//  3. Finalize: the last chunk is rendered as text, one value per line,
//     written to <output>.tmp and renamed onto the output. The chunk is then
//     deleted.
//
// Peak memory is the batch buffer (capacity * 8 bytes) during produce and a
// few buffered readers during merge, independent of the input size.
//
// # Storage
//
// Chunk files are kept in the working directory by default. WithWorkDir
// moves them; WithStore puts them in any blobstore.BlobStore, for example
// the S3 or MinIO stores:
//
//	store, err := s3.New(ctx, "spill-bucket", s3.WithPrefix("run-1/"))
//	sorter, err := spillsort.New(
//	    spillsort.WithStore(store),
//	    spillsort.WithCompression(spillsort.CompressionZSTD),
//	)
//
// # Errors
//
// Every error returned by Sort is a *PhaseError naming the phase that failed.
// The cause is one of *InputOpenError, *ParseError, *ChunkOpenError,
// *ChunkReadError, *ChunkWriteError or *OutputError, or a context error.
// A failed run never commits the output; chunks of a failed merge are left
// in the store.
package spillsort
