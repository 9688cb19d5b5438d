// Package chunkset tracks which chunks of a run are live and hands out
// chunk indices.
package chunkset

import (
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Sequence issues chunk indices in creation order. Indices start at the
// value passed to NewSequence and are never reused.
//
// A Sequence is owned by one sort run and passed by pointer into every phase
// that creates chunks. It is not safe for concurrent use.
type Sequence struct {
	start uint64
	next  uint64
}

// NewSequence returns a sequence whose first index is start.
func NewSequence(start uint64) *Sequence {
	return &Sequence{start: start, next: start}
}

// Next returns a fresh index.
func (s *Sequence) Next() uint64 {
	i := s.next
	s.next++
	return i
}

// Peek returns the index the next call to Next will return.
func (s *Sequence) Peek() uint64 {
	return s.next
}

// Issued returns how many indices have been handed out.
func (s *Sequence) Issued() uint64 {
	return s.next - s.start
}

// Last returns the most recently issued index. ok is false if none was issued.
func (s *Sequence) Last() (index uint64, ok bool) {
	if s.next == s.start {
		return 0, false
	}
	return s.next - 1, true
}

// Set is the set of live chunk indices, backed by a 64-bit roaring bitmap.
type Set struct {
	rb *roaring64.Bitmap
}

// New returns an empty set.
func New() *Set {
	return &Set{rb: roaring64.New()}
}

// Add marks index as live. It reports false if index was already live.
func (s *Set) Add(index uint64) bool {
	return s.rb.CheckedAdd(index)
}

// Remove marks index as consumed. It reports false if index was not live.
func (s *Set) Remove(index uint64) bool {
	return s.rb.CheckedRemove(index)
}

// Contains reports whether index is live.
func (s *Set) Contains(index uint64) bool {
	return s.rb.Contains(index)
}

// Len returns the number of live chunks.
func (s *Set) Len() int {
	return int(s.rb.GetCardinality())
}

// IsEmpty reports whether no chunk is live.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Indices returns the live indices in ascending order.
func (s *Set) Indices() []uint64 {
	return s.rb.ToArray()
}

// All iterates the live indices in ascending order.
func (s *Set) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Only returns the single live index. It fails unless exactly one chunk is live.
func (s *Set) Only() (uint64, error) {
	if n := s.Len(); n != 1 {
		return 0, fmt.Errorf("chunkset: %d live chunks, want 1", n)
	}
	return s.rb.Minimum(), nil
}

func (s *Set) String() string {
	return fmt.Sprint(s.Indices())
}
