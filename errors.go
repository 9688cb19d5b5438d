package spillsort

import (
	"errors"

	"github.com/hupe1980/spillsort/internal/produce"
	"github.com/hupe1980/spillsort/internal/sorterr"
)

var (
	// ErrInvalidCapacity is returned when the chunk capacity is not positive.
	ErrInvalidCapacity = produce.ErrInvalidCapacity

	// ErrNaN is the cause of a ParseError for a NaN input line.
	ErrNaN = sorterr.ErrNaN

	// ErrCorruptChunk indicates a chunk that does not decode to whole records.
	ErrCorruptChunk = sorterr.ErrCorruptChunk

	// ErrLeakedChunks is returned when chunks remain live after a run that
	// otherwise succeeded.
	ErrLeakedChunks = errors.New("chunks left after run")
)

// Phase identifies a stage of a sort run.
type Phase = sorterr.Phase

const (
	PhaseProduce  = sorterr.PhaseProduce
	PhaseMerge    = sorterr.PhaseMerge
	PhaseFinalize = sorterr.PhaseFinalize
)

// PhaseError attributes a failure to the phase it happened in. Every error
// returned by Sorter.Sort is a *PhaseError; use errors.As to reach the typed
// cause below it.
type PhaseError = sorterr.PhaseError

// InputOpenError indicates that the unsorted input could not be opened.
type InputOpenError = sorterr.InputOpenError

// ParseError indicates an input line that is not a decimal number.
//
// Line is 1-based and counts blank lines. The cause is strconv.ErrSyntax,
// strconv.ErrRange, ErrNaN or bufio.ErrTooLong.
type ParseError = sorterr.ParseError

// ChunkOpenError indicates a chunk that could not be opened, typically
// because it vanished from the store during the merge phase.
type ChunkOpenError = sorterr.ChunkOpenError

// ChunkReadError indicates a chunk that failed while being streamed.
type ChunkReadError = sorterr.ChunkReadError

// ChunkWriteError indicates a chunk that could not be written or committed.
type ChunkWriteError = sorterr.ChunkWriteError

// OutputError indicates that the sorted output could not be written or committed.
type OutputError = sorterr.OutputError

// FailedPhase returns the phase err is attributed to.
func FailedPhase(err error) (Phase, bool) {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase, true
	}
	return 0, false
}
