// Package testutil provides testing utilities for spillsort.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source for reproducible datasets and helpers
// to write sort inputs and read sort outputs.
//
// # Datasets
//
//	rng := testutil.NewRNG(4711)
//	values := rng.UniformFloats(1000, -1e6, 1e6)
//	dups := rng.DuplicateHeavy(1000, 7) // only 7 distinct values
//
// # Files
//
//	in := testutil.WriteInput(t, dir, values)
//	got := testutil.ReadOutput(t, out)
package testutil
