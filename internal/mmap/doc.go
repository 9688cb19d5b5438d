// Package mmap provides read-only memory-mapped access to local chunk files.
//
// The merge phase reads every chunk exactly once, front to back. Mapping the
// file and advising the kernel of a sequential pattern lets the page cache do
// read-ahead and drop pages behind the cursor, so resident memory stays small
// no matter how large the chunk is.
//
// # Usage
//
//	m, err := mmap.Open("sorted_3.bin")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	n, err := m.ReadAt(buf, off)
//
// # Platform Support
//
// Unix platforms use mmap(2) and madvise(2) via golang.org/x/sys/unix. On
// other platforms Open returns ErrUnsupported and callers fall back to
// ordinary file reads.
package mmap
