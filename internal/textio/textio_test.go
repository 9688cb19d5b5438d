package textio

import (
	"bufio"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/hupe1980/spillsort/internal/sorterr"
	"github.com/hupe1980/spillsort/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, input string) ([]float64, error) {
	t.Helper()

	s := NewScanner(strings.NewReader(input))
	var out []float64
	for s.Scan() {
		out = append(out, s.Value())
	}
	return out, s.Err()
}

func TestScanner(t *testing.T) {
	got, err := scanAll(t, "3.5\n\n  1.1\r\n-2e3\n+Inf\n-inf\n0x1p-2\n\n\n")
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, 1.1, -2000, math.Inf(1), math.Inf(-1), 0.25}, got)
}

func TestScannerNoTrailingNewline(t *testing.T) {
	got, err := scanAll(t, "1\n2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
}

func TestScannerEmpty(t *testing.T) {
	got, err := scanAll(t, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = scanAll(t, "\n \n\t\n")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScannerParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		line  int
		text  string
		cause error
	}{
		{"Syntax", "1\n\nabc\n2\n", 3, "abc", strconv.ErrSyntax},
		{"NaN", "nan\n", 1, "nan", sorterr.ErrNaN},
		{"Range", "1\n1e400\n", 2, "1e400", strconv.ErrRange},
		{"Comma", "1,5\n", 1, "1,5", strconv.ErrSyntax},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScanner(strings.NewReader(tc.input))
			for s.Scan() {
			}

			var pe *sorterr.ParseError
			require.ErrorAs(t, s.Err(), &pe)
			assert.Equal(t, tc.line, pe.Line)
			assert.Equal(t, tc.text, pe.Text)
			assert.ErrorIs(t, s.Err(), tc.cause)

			// The scanner stays stopped.
			assert.False(t, s.Scan())
		})
	}
}

func TestScannerLineTooLong(t *testing.T) {
	long := strings.Repeat("1", MaxLineLength+1)
	s := NewScanner(strings.NewReader("1\n" + long + "\n"))

	require.True(t, s.Scan())
	require.False(t, s.Scan())

	var pe *sorterr.ParseError
	require.ErrorAs(t, s.Err(), &pe)
	assert.Equal(t, 2, pe.Line)
	assert.ErrorIs(t, s.Err(), bufio.ErrTooLong)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestScannerReadError(t *testing.T) {
	s := NewScanner(failingReader{})
	assert.False(t, s.Scan())
	assert.EqualError(t, s.Err(), "read input: disk gone")

	var pe *sorterr.ParseError
	assert.False(t, errors.As(s.Err(), &pe))
}

func TestFormatRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(4711)
	values := append(rng.Edgy(2000), rng.GaussianFloats(2000, 0, 1e9)...)

	var buf []byte
	for _, v := range values {
		buf = DefaultFormat.AppendLine(buf, v)
	}

	got, err := scanAll(t, string(buf))
	require.NoError(t, err)
	require.Len(t, got, len(values))
	for i := range values {
		require.Equal(t, math.Float64bits(values[i]), math.Float64bits(got[i]), "value %v", values[i])
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.1", string(DefaultFormat.Append(nil, 1.1)))
	assert.Equal(t, "-0", string(DefaultFormat.Append(nil, math.Copysign(0, -1))))
	assert.Equal(t, "+Inf\n", string(DefaultFormat.AppendLine(nil, math.Inf(1))))
	assert.Equal(t, "2.00", string(Format{Verb: 'f', Prec: 2}.Append(nil, 2)))
	assert.Equal(t, "g/-1", DefaultFormat.String())

	require.NoError(t, DefaultFormat.Validate())
	assert.Error(t, Format{Verb: 'x', Prec: -1}.Validate())
	assert.Error(t, Format{Verb: 'g', Prec: -2}.Validate())
}
