package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spillsort/testutil"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteLines(t, dir, "5", "4", "", "3", "2", "1")
	out := filepath.Join(dir, "sorted.txt")

	code, stdout, stderr := runCLI(t, "-workdir", dir, "-capacity", "2", in, out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "sorted 5 records")
	assert.Contains(t, stdout, "3 chunks, 2 merges")

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, testutil.ReadOutput(t, out))
	assert.Empty(t, testutil.Glob(t, dir, "sorted_*"))
}

func TestRunMissingArgs(t *testing.T) {
	code, _, stderr := runCLI(t, "only-input.txt")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage: spillsort")
}

func TestRunUnknownFlag(t *testing.T) {
	code, _, _ := runCLI(t, "-no-such-flag", "a", "b")
	assert.Equal(t, exitUsage, code)
}

func TestRunParseError(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteLines(t, dir, "1", "abc")
	out := filepath.Join(dir, "sorted.txt")

	code, _, stderr := runCLI(t, "-workdir", dir, in, out)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "spillsort: produce: line 2")
	assert.NoFileExists(t, out)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()

	code, _, stderr := runCLI(t, "-workdir", dir, filepath.Join(dir, "nope.txt"), filepath.Join(dir, "out.txt"))
	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr, "spillsort: produce:")
}

func TestRunInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"UnknownStore", []string{"-store", "ftp"}},
		{"S3WithoutBucket", []string{"-store", "s3"}},
		{"MinioWithoutEndpoint", []string{"-store", "minio", "-bucket", "b"}},
		{"BadCompression", []string{"-compression", "gzip"}},
		{"BadLogLevel", []string{"-log-level", "loud"}},
		{"NegativeCapacity", []string{"-capacity", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, filepath.Join(dir, "in.txt"), filepath.Join(dir, "out.txt"))
			code, _, stderr := runCLI(t, args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr, "invalid configuration")
		})
	}
}

func TestRunEnvironment(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteInput(t, dir, testutil.NewRNG(1).UniformFloats(200, -1, 1))
	out := filepath.Join(dir, "sorted.txt")

	t.Setenv("SPILLSORT_COMPRESSION", "zstd")
	t.Setenv("SPILLSORT_CAPACITY", "16")
	t.Setenv("SPILLSORT_WORKDIR", dir)
	t.Setenv("SPILLSORT_LOG_JSON", "true")
	t.Setenv("SPILLSORT_LOG_LEVEL", "debug")

	code, stdout, stderr := runCLI(t, in, out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "13 chunks")
	assert.Contains(t, stderr, `"msg":"chunk produced"`)

	got := testutil.ReadOutput(t, out)
	assert.Len(t, got, 200)
	assert.True(t, testutil.IsAscending(got))
}

func TestRunFlagOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteInput(t, dir, []float64{3, 2, 1})
	out := filepath.Join(dir, "sorted.txt")

	t.Setenv("SPILLSORT_STORE", "ftp")

	code, _, stderr := runCLI(t, "-store", "local", "-workdir", dir, in, out)
	require.Equal(t, exitOK, code, stderr)
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteInput(t, dir, []float64{3, 2, 1})
	out := filepath.Join(dir, "sorted.txt")

	path := filepath.Join(dir, "spillsort.env")
	require.NoError(t, os.WriteFile(path, []byte("SPILLSORT_CAPACITY=1\nSPILLSORT_WORKDIR="+dir+"\n"), 0o644))
	// Values from the file are exported to the environment; restore it afterwards.
	t.Setenv("SPILLSORT_CAPACITY", "0")
	t.Setenv("SPILLSORT_WORKDIR", ".")
	t.Setenv("SPILLSORT_CONFIG", path)

	code, stdout, stderr := runCLI(t, in, out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "3 chunks, 2 merges")
}

func TestRunMetrics(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteInput(t, dir, []float64{3, 2, 1})
	out := filepath.Join(dir, "sorted.txt")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	code, _, stderr := runCLI(t, "-workdir", dir, "-metrics-addr", addr, in, out)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, []float64{1, 2, 3}, testutil.ReadOutput(t, out))
}
