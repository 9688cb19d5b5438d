package textio

import (
	"fmt"
	"strconv"
)

// Format controls how records are rendered as text.
// See strconv.FormatFloat for the meaning of Verb and Prec.
type Format struct {
	Verb byte
	Prec int
}

// DefaultFormat renders the shortest text that parses back to the same float64.
var DefaultFormat = Format{Verb: 'g', Prec: -1}

// Validate reports whether f is usable.
func (f Format) Validate() error {
	switch f.Verb {
	case 'e', 'E', 'f', 'g', 'G':
	default:
		return fmt.Errorf("textio: unsupported float verb %q", f.Verb)
	}
	if f.Prec < -1 {
		return fmt.Errorf("textio: invalid precision %d", f.Prec)
	}
	return nil
}

// Append appends the text of v to dst.
func (f Format) Append(dst []byte, v float64) []byte {
	return strconv.AppendFloat(dst, v, f.Verb, f.Prec, 64)
}

// AppendLine appends the text of v followed by a newline.
func (f Format) AppendLine(dst []byte, v float64) []byte {
	return append(f.Append(dst, v), '\n')
}

func (f Format) String() string {
	return fmt.Sprintf("%c/%d", f.Verb, f.Prec)
}
