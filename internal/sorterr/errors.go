// Package sorterr defines the typed failures shared by the sort phases.
package sorterr

import (
	"errors"
	"fmt"
)

// Phase identifies a stage of a sort run.
type Phase uint8

const (
	PhaseProduce Phase = iota + 1
	PhaseMerge
	PhaseFinalize
)

func (p Phase) String() string {
	switch p {
	case PhaseProduce:
		return "produce"
	case PhaseMerge:
		return "merge"
	case PhaseFinalize:
		return "finalize"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

var (
	// ErrNaN is the cause of a ParseError for a NaN literal. NaN has no place
	// in an ascending order, so it is rejected on input.
	ErrNaN = errors.New("NaN is not orderable")

	// ErrCorruptChunk indicates a chunk whose content is not a whole number
	// of records or whose block framing is damaged.
	ErrCorruptChunk = errors.New("corrupt chunk")
)

// InputOpenError reports that the unsorted input could not be opened.
type InputOpenError struct {
	Path string
	Err  error
}

func (e *InputOpenError) Error() string {
	return fmt.Sprintf("open input %s: %v", e.Path, e.Err)
}

func (e *InputOpenError) Unwrap() error { return e.Err }

// ParseError reports an input line that is not a decimal literal.
// Line is 1-based and counts blank lines.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid number %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ChunkOpenError reports a chunk that could not be opened for reading.
type ChunkOpenError struct {
	Index uint64
	Name  string
	Err   error
}

func (e *ChunkOpenError) Error() string {
	return fmt.Sprintf("open chunk %s: %v", e.Name, e.Err)
}

func (e *ChunkOpenError) Unwrap() error { return e.Err }

// ChunkReadError reports a failure while streaming records out of a chunk.
type ChunkReadError struct {
	Index uint64
	Name  string
	Err   error
}

func (e *ChunkReadError) Error() string {
	return fmt.Sprintf("read chunk %s: %v", e.Name, e.Err)
}

func (e *ChunkReadError) Unwrap() error { return e.Err }

// ChunkWriteError reports a chunk that could not be created, written or committed.
type ChunkWriteError struct {
	Index uint64
	Name  string
	Err   error
}

func (e *ChunkWriteError) Error() string {
	return fmt.Sprintf("write chunk %s: %v", e.Name, e.Err)
}

func (e *ChunkWriteError) Unwrap() error { return e.Err }

// OutputError reports that the sorted output could not be written or committed.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write output %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// PhaseError attributes a failure to the phase it happened in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// InPhase wraps err with phase. A nil err stays nil and an error that already
// carries a phase is returned unchanged.
func InPhase(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	var pe *PhaseError
	if errors.As(err, &pe) {
		return err
	}
	return &PhaseError{Phase: phase, Err: err}
}
