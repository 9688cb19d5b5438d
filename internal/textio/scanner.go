// Package textio reads and writes newline-delimited decimal records.
package textio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/spillsort/internal/sorterr"
)

const (
	initialBufferSize = 64 * 1024

	// MaxLineLength is the longest accepted input line in bytes.
	MaxLineLength = 1024 * 1024
)

// Scanner yields the records of an input text one at a time.
// Blank lines are skipped. Surrounding whitespace, including a trailing
// carriage return, is ignored.
type Scanner struct {
	sc    *bufio.Scanner
	line  int
	value float64
	err   error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialBufferSize), MaxLineLength)
	return &Scanner{sc: sc}
}

// Scan advances to the next record. It returns false at the end of input or
// on the first failure, which Err then reports.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.sc.Scan() {
		s.line++

		text := strings.TrimSpace(s.sc.Text())
		if text == "" {
			continue
		}

		v, err := ParseRecord(text)
		if err != nil {
			s.err = &sorterr.ParseError{Line: s.line, Text: text, Err: err}
			return false
		}
		s.value = v
		return true
	}

	if err := s.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			s.err = &sorterr.ParseError{Line: s.line + 1, Text: "", Err: err}
		} else {
			s.err = fmt.Errorf("read input: %w", err)
		}
	}
	return false
}

// Value returns the record produced by the last successful Scan.
func (s *Scanner) Value() float64 {
	return s.value
}

// Line returns the 1-based line number of the current record.
func (s *Scanner) Line() int {
	return s.line
}

// Err returns the first failure, or nil at a clean end of input.
func (s *Scanner) Err() error {
	return s.err
}

// ParseRecord parses one trimmed decimal literal.
// NaN and literals outside the float64 range are rejected.
func ParseRecord(text string) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) {
			return 0, ne.Err
		}
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, sorterr.ErrNaN
	}
	return v, nil
}
