// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: filesystem operations (open, remove, rename, ...)
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects I/O errors per file name pattern
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
//
// Tests inject a [FaultyFS] to make chunk or output writes fail:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("sorted_2.bin", fs.Fault{FailAfterBytes: 16})
//
// The interfaces carry no context.Context. Local filesystem calls are not
// interruptible at the syscall level; slow remote storage goes through
// blobstore, which does take a context.
package fs
