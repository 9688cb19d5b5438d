package testutil

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// WriteInput writes values as newline-delimited decimal literals to a file
// in dir and returns its path.
func WriteInput(tb testing.TB, dir string, values []float64) string {
	tb.Helper()

	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return WriteLines(tb, dir, lines...)
}

// WriteLines writes raw lines to a file in dir and returns its path.
func WriteLines(tb testing.TB, dir string, lines ...string) string {
	tb.Helper()

	f, err := os.CreateTemp(dir, "input-*.txt")
	if err != nil {
		tb.Fatalf("create input: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		_, _ = w.WriteString(line)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tb.Fatalf("write input: %v", err)
	}
	return f.Name()
}

// ReadOutput parses a sort output file back into values.
func ReadOutput(tb testing.TB, path string) []float64 {
	tb.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("read output: %v", err)
	}

	var out []float64
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			tb.Fatalf("parse output line %q: %v", line, err)
		}
		out = append(out, v)
	}
	return out
}

// Glob returns the files in dir matching pattern.
func Glob(tb testing.TB, dir, pattern string) []string {
	tb.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		tb.Fatalf("glob: %v", err)
	}
	return matches
}
