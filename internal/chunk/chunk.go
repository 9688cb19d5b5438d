// Package chunk implements the on-store format of sorted runs.
//
// A chunk is a sequence of float64 records in non-decreasing order, encoded
// as little-endian IEEE 754 bit patterns, eight bytes each, with no header.
// When a run enables compression the same byte stream is split into framed
// blocks, see Compression.
package chunk

import (
	"strconv"
	"strings"

	"github.com/hupe1980/spillsort/internal/sorterr"
)

// RecordSize is the encoded size of one record in bytes.
const RecordSize = 8

// NamePrefix is shared by the names of all chunks.
const NamePrefix = "sorted_"

const nameSuffix = ".bin"

// ErrCorrupt is returned for chunks that do not decode to whole records.
var ErrCorrupt = sorterr.ErrCorruptChunk

// Name returns the blob name of the chunk with the given index.
func Name(index uint64) string {
	return NamePrefix + strconv.FormatUint(index, 10) + nameSuffix
}

// ParseName is the inverse of Name.
func ParseName(name string) (uint64, bool) {
	digits, ok := strings.CutPrefix(name, NamePrefix)
	if !ok {
		return 0, false
	}
	digits, ok = strings.CutSuffix(digits, nameSuffix)
	if !ok || digits == "" {
		return 0, false
	}
	index, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || Name(index) != name {
		return 0, false
	}
	return index, true
}
